package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/aqi-forecast-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/aqi-forecast-etl/internal/artifact"
	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
)

// Query answers point lookups from persisted artifacts. It never computes:
// a missing artifact is reported as domain.ErrNotFound.
type Query struct {
	store artifact.Store
}

// NewQuery creates a Query over store. Wrap the store in an
// artifact.CachedStore to avoid re-reading artifacts on every call.
func NewQuery(store artifact.Store) *Query {
	return &Query{store: store}
}

// DistrictAverage returns the observed average AQI of a district for a year.
func (q *Query) DistrictAverage(ctx context.Context, scope domain.Scope, district string, year int) (float64, error) {
	data, err := q.get(ctx, artifact.AveragesKey(scope))
	if err != nil {
		return 0, err
	}
	averages, err := csvfile.DecodeAverages(data, scope)
	if err != nil {
		return 0, err
	}
	for _, a := range averages {
		if a.District == district && a.Year == year {
			return a.AverageAQI, nil
		}
	}
	return 0, fmt.Errorf("%w: %s average for %s in %d", domain.ErrNotFound, scope, district, year)
}

// Prediction evaluates the scope's model for a district and year. Districts
// the model was not trained on are not found.
func (q *Query) Prediction(ctx context.Context, scope domain.Scope, district string, year int) (float64, error) {
	data, err := q.get(ctx, artifact.ModelKey(scope))
	if err != nil {
		return 0, err
	}
	model, err := decodeModel(data)
	if err != nil {
		return 0, err
	}
	if !model.Covers(district) {
		return 0, fmt.Errorf("%w: %s model has no district %s", domain.ErrNotFound, scope, district)
	}
	return model.Predict(year), nil
}

func (q *Query) get(ctx context.Context, key string) ([]byte, error) {
	data, err := q.store.Get(ctx, key)
	if errors.Is(err, artifact.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}
