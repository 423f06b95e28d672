package artifact

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
)

// Artifact keys. Later runs check these exact names, so they are part of the
// on-disk contract with earlier runs and with the dashboard.
const (
	CleanedDataKey = "data/cleaned_aqi_data.csv"
	MapsPrefix     = "data/maps/"
	PlotsPrefix    = "data/plots/"
)

// AveragesKey is the DistrictAverage table of a scope, e.g. "data/winter_aqi_averages.csv".
func AveragesKey(scope domain.Scope) string {
	return fmt.Sprintf("data/%s_aqi_averages.csv", scope.Slug())
}

// ModelKey is the persisted TrendModel of a scope. The .pkl suffix predates the
// JSON encoding and is kept so existing artifacts are still recognized.
func ModelKey(scope domain.Scope) string {
	return fmt.Sprintf("models/%s_model.pkl", scope.Slug())
}

// HistoricalMapKey is the rendered map of one year of a scope's averages.
func HistoricalMapKey(scope domain.Scope, year int) string {
	dir := "annual"
	if scope.Seasonal() {
		dir = "seasonal"
	}
	return fmt.Sprintf("%s%s/Map_%s.html", MapsPrefix, dir, domain.MapKey(scope, year))
}

// PredictionMapKey is the rendered map of one forecast year of a scope.
func PredictionMapKey(scope domain.Scope, year int) string {
	return fmt.Sprintf("%spredictions/Map_%s.html", MapsPrefix, domain.ForecastKey(scope, year))
}

// DistrictPlotKey is the annual scatter plot of one district. The district id
// is lower-cased and every rune outside [a-z0-9] becomes "_".
func DistrictPlotKey(district string) string {
	slug := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToLower(district))
	return fmt.Sprintf("%sannual/%s.html", PlotsPrefix, slug)
}

// Kind classifies a key for metrics: dataset, averages, model, map, or plot.
func Kind(key string) string {
	switch {
	case strings.HasPrefix(key, MapsPrefix):
		return "map"
	case strings.HasPrefix(key, PlotsPrefix):
		return "plot"
	case strings.HasPrefix(key, "models/"):
		return "model"
	case strings.HasSuffix(key, "_averages.csv"):
		return "averages"
	default:
		return "dataset"
	}
}
