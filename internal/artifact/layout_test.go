package artifact

import (
	"testing"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestLayoutKeys(t *testing.T) {
	assert.Equal(t, "data/annual_aqi_averages.csv", AveragesKey(domain.ScopeAnnual))
	assert.Equal(t, "data/summer_aqi_averages.csv", AveragesKey(domain.ScopeSummer))
	assert.Equal(t, "models/winter_model.pkl", ModelKey(domain.ScopeWinter))
	assert.Equal(t, "data/maps/annual/Map_2015.html", HistoricalMapKey(domain.ScopeAnnual, 2015))
	assert.Equal(t, "data/maps/seasonal/Map_Winter_2015.html", HistoricalMapKey(domain.ScopeWinter, 2015))
	assert.Equal(t, "data/maps/predictions/Map_Summer_2027.html", PredictionMapKey(domain.ScopeSummer, 2027))
	assert.Equal(t, "data/plots/annual/bk01.html", DistrictPlotKey("BK01"))
	assert.Equal(t, "data/plots/annual/kingsbridge___riverdale.html", DistrictPlotKey("Kingsbridge - Riverdale"))
	assert.Equal(t, "data/plots/annual/___.html", DistrictPlotKey("../"))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "dataset", Kind(CleanedDataKey))
	assert.Equal(t, "averages", Kind(AveragesKey(domain.ScopeWinter)))
	assert.Equal(t, "model", Kind(ModelKey(domain.ScopeAnnual)))
	assert.Equal(t, "map", Kind(PredictionMapKey(domain.ScopeAnnual, 2030)))
	assert.Equal(t, "plot", Kind(DistrictPlotKey("BK01")))
}
