package pipeline

import (
	"context"
	"io"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
)

// RawSource opens the upstream monitoring export.
type RawSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// MapRenderer draws one map page per scope and year, and one annual scatter
// plot per district.
type MapRenderer interface {
	RenderAverages(scope domain.Scope, year int, averages []domain.DistrictAverage) ([]byte, error)
	RenderPredictions(scope domain.Scope, year int, predictions []domain.Prediction) ([]byte, error)
	RenderDistrictPlot(district string, averages []domain.DistrictAverage) ([]byte, error)
}

// Publisher announces forecasts to downstream consumers.
type Publisher interface {
	PublishForecasts(ctx context.Context, runID string, predictions []domain.Prediction) error
}

// Sink mirrors averages and forecasts into an external store.
type Sink interface {
	UpsertAverages(ctx context.Context, averages []domain.DistrictAverage) error
	UpsertPredictions(ctx context.Context, runID string, predictions []domain.Prediction) error
}

// Stages are the collaborators a Pipeline drives. Publisher and Sink may be nil.
type Stages struct {
	Source     RawSource
	Calculator *domain.Calculator
	Renderer   MapRenderer
	Publisher  Publisher
	Sink       Sink
}

// Options tune a single run.
type Options struct {
	RunID         string
	Pollutants    []string
	ForecastYears int
	MapWorkers    int
}
