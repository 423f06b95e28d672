package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/aqi-forecast-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/aqi-forecast-etl/internal/artifact"
	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	"github.com/couchcryptid/aqi-forecast-etl/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs the batch: clean, score, aggregate, fit, forecast, render.
// Every derived output goes through the artifact cache, so a second run over
// the same store only reads.
type Pipeline struct {
	cache    *artifact.Cache
	stages   Stages
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
	timeline atomic.Pointer[domain.Timeline]
}

// New creates a Pipeline. Zero ForecastYears or MapWorkers fall back to 5 and 1.
func New(cache *artifact.Cache, stages Stages, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.ForecastYears <= 0 {
		opts.ForecastYears = 5
	}
	if opts.MapWorkers <= 0 {
		opts.MapWorkers = 1
	}
	return &Pipeline{
		cache:   cache,
		stages:  stages,
		opts:    opts,
		logger:  logger.With("run_id", opts.RunID),
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has finished, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Timeline returns the map timeline of the last completed run.
func (p *Pipeline) Timeline() (domain.Timeline, bool) {
	tl := p.timeline.Load()
	if tl == nil {
		return domain.Timeline{}, false
	}
	return *tl, true
}

// Run executes one full pass. Scopes are independent: a failing scope is
// logged and reported in a *RunError while the others still complete. Errors
// before the scope stage (missing raw data, bad breakpoint configuration) abort
// the run.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.logger.Info("pipeline started", "forecast_years", p.opts.ForecastYears, "map_workers", p.opts.MapWorkers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	records, err := p.loadRecords(ctx)
	if err != nil {
		return err
	}

	averages := make(map[domain.Scope][]domain.DistrictAverage, len(domain.Scopes))
	predictions := make(map[domain.Scope][]domain.Prediction, len(domain.Scopes))
	var failures []ScopeFailure

	for _, scope := range domain.Scopes {
		if err := ctx.Err(); err != nil {
			return err
		}
		avgs, preds, err := p.runScope(ctx, scope, records)
		if avgs != nil {
			averages[scope] = avgs
		}
		if err != nil {
			p.logger.Error("scope failed", "scope", scope, "error", err)
			p.metrics.ScopeFailures.WithLabelValues(scope.Slug()).Inc()
			failures = append(failures, ScopeFailure{Scope: scope, Err: err})
			continue
		}
		predictions[scope] = preds
	}

	tl := domain.NewTimeline(averages, predictions)
	p.timeline.Store(&tl)
	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"duration", time.Since(start),
		"failed_scopes", len(failures),
		"annual_years", len(tl.AnnualYears),
		"seasonal_maps", len(tl.SeasonalKeys),
	)

	if len(failures) > 0 {
		return &RunError{Failures: failures}
	}
	return nil
}

// loadRecords ensures the cleaned dataset and converts it to AQI records.
func (p *Pipeline) loadRecords(ctx context.Context) ([]domain.AQIRecord, error) {
	defer p.observe("clean", time.Now())

	if _, err := p.cache.Ensure(ctx, artifact.CleanedDataKey, p.produceCleaned); err != nil {
		return nil, fmt.Errorf("clean raw data: %w", err)
	}
	data, err := p.cache.Load(ctx, artifact.CleanedDataKey)
	if err != nil {
		return nil, fmt.Errorf("load cleaned data: %w", err)
	}

	readings, stats, err := csvfile.DecodeReadings(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cleaned data: %w", err)
	}
	if stats.Skipped > 0 {
		p.logger.Warn("unparsable readings skipped", "count", stats.Skipped)
	}

	records, skipped, err := p.stages.Calculator.Records(readings)
	if err != nil {
		return nil, fmt.Errorf("compute aqi: %w", err)
	}
	for _, serr := range skipped {
		p.logger.Warn("invalid reading skipped", "error", serr)
	}
	p.metrics.ReadingsSkipped.Add(float64(len(skipped) + stats.Skipped))
	p.metrics.ReadingsProcessed.Add(float64(len(records)))
	p.logger.Info("readings scored", "records", len(records), "skipped", len(skipped)+stats.Skipped)
	return records, nil
}

func (p *Pipeline) produceCleaned(ctx context.Context) ([]byte, error) {
	rc, err := p.stages.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, stats, err := csvfile.Clean(rc, p.opts.Pollutants)
	if err != nil {
		return nil, err
	}
	p.metrics.ReadingsSkipped.Add(float64(stats.Skipped))
	p.logger.Info("raw data cleaned", "rows", stats.Rows, "skipped", stats.Skipped)
	return data, nil
}

// runScope runs every per-scope stage. Averages are returned whenever they
// were loaded, even if a later stage fails.
func (p *Pipeline) runScope(ctx context.Context, scope domain.Scope, records []domain.AQIRecord) ([]domain.DistrictAverage, []domain.Prediction, error) {
	log := p.logger.With("scope", scope)

	averages, err := p.averages(ctx, scope, records, log)
	if err != nil {
		return nil, nil, err
	}
	if err := p.renderHistorical(ctx, scope, averages); err != nil {
		return averages, nil, err
	}
	if scope == domain.ScopeAnnual {
		if err := p.renderPlots(ctx, averages); err != nil {
			return averages, nil, err
		}
	}

	model, err := p.model(ctx, scope, averages)
	if err != nil {
		return averages, nil, err
	}
	predictions := model.Forecast(p.opts.ForecastYears)
	log.Info("forecast ready",
		"slope", model.Slope,
		"districts", len(model.Districts),
		"from", model.Years.Max+1,
		"to", model.Years.Max+p.opts.ForecastYears,
	)

	if err := p.renderPredictions(ctx, scope, model, predictions); err != nil {
		return averages, nil, err
	}
	if err := p.export(ctx, averages, predictions); err != nil {
		return averages, nil, err
	}
	return averages, predictions, nil
}

func (p *Pipeline) averages(ctx context.Context, scope domain.Scope, records []domain.AQIRecord, log *slog.Logger) ([]domain.DistrictAverage, error) {
	defer p.observe("aggregate", time.Now())

	key := artifact.AveragesKey(scope)
	_, err := p.cache.Ensure(ctx, key, func(context.Context) ([]byte, error) {
		avgs, stats := domain.Aggregate(records, scope, log)
		p.metrics.AggregateSkipped.WithLabelValues(scope.Slug()).Add(float64(stats.Skipped))
		log.Info("averages computed", "rows", len(avgs), "matched", stats.Matched, "skipped", stats.Skipped)
		return csvfile.EncodeAverages(avgs)
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	data, err := p.cache.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load averages: %w", err)
	}
	return csvfile.DecodeAverages(data, scope)
}

func (p *Pipeline) model(ctx context.Context, scope domain.Scope, averages []domain.DistrictAverage) (domain.TrendModel, error) {
	defer p.observe("fit", time.Now())

	key := artifact.ModelKey(scope)
	_, err := p.cache.Ensure(ctx, key, func(context.Context) ([]byte, error) {
		m, err := domain.Fit(scope, averages)
		if err != nil {
			return nil, err
		}
		return encodeModel(m)
	})
	if err != nil {
		return domain.TrendModel{}, fmt.Errorf("fit model: %w", err)
	}

	data, err := p.cache.Load(ctx, key)
	if err != nil {
		return domain.TrendModel{}, fmt.Errorf("load model: %w", err)
	}
	return decodeModel(data)
}

// renderHistorical ensures one map per year of averages on at most MapWorkers
// goroutines. The first failure cancels the renders not yet started and is
// the error returned.
func (p *Pipeline) renderHistorical(ctx context.Context, scope domain.Scope, averages []domain.DistrictAverage) error {
	defer p.observe("render_historical", time.Now())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MapWorkers)
	for _, year := range yearsOf(averages) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := artifact.HistoricalMapKey(scope, year)
			_, err := p.cache.Ensure(gctx, key, func(context.Context) ([]byte, error) {
				return p.stages.Renderer.RenderAverages(scope, year, averages)
			})
			if err != nil {
				return fmt.Errorf("render map %s: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// renderPlots ensures the annual scatter plot of every district, in district order.
func (p *Pipeline) renderPlots(ctx context.Context, averages []domain.DistrictAverage) error {
	defer p.observe("render_plots", time.Now())

	for _, district := range districtsOf(averages) {
		key := artifact.DistrictPlotKey(district)
		_, err := p.cache.Ensure(ctx, key, func(context.Context) ([]byte, error) {
			return p.stages.Renderer.RenderDistrictPlot(district, averages)
		})
		if err != nil {
			return fmt.Errorf("render plot %s: %w", key, err)
		}
	}
	return nil
}

func (p *Pipeline) renderPredictions(ctx context.Context, scope domain.Scope, model domain.TrendModel, predictions []domain.Prediction) error {
	defer p.observe("render_predictions", time.Now())

	for year := model.Years.Max + 1; year <= model.Years.Max+p.opts.ForecastYears; year++ {
		key := artifact.PredictionMapKey(scope, year)
		_, err := p.cache.Ensure(ctx, key, func(context.Context) ([]byte, error) {
			return p.stages.Renderer.RenderPredictions(scope, year, predictions)
		})
		if err != nil {
			return fmt.Errorf("render map %s: %w", key, err)
		}
	}
	return nil
}

// export hands the scope's results to the optional publisher and sink.
func (p *Pipeline) export(ctx context.Context, averages []domain.DistrictAverage, predictions []domain.Prediction) error {
	defer p.observe("export", time.Now())

	if p.stages.Publisher != nil {
		if err := p.stages.Publisher.PublishForecasts(ctx, p.opts.RunID, predictions); err != nil {
			return fmt.Errorf("publish forecasts: %w", err)
		}
		p.metrics.PredictionsPublished.Add(float64(len(predictions)))
	}
	if p.stages.Sink != nil {
		if err := p.stages.Sink.UpsertAverages(ctx, averages); err != nil {
			return fmt.Errorf("store averages: %w", err)
		}
		if err := p.stages.Sink.UpsertPredictions(ctx, p.opts.RunID, predictions); err != nil {
			return fmt.Errorf("store predictions: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func yearsOf(averages []domain.DistrictAverage) []int {
	var years []int
	seen := make(map[int]struct{})
	for _, a := range averages {
		if _, ok := seen[a.Year]; !ok {
			seen[a.Year] = struct{}{}
			years = append(years, a.Year)
		}
	}
	return years
}

func districtsOf(averages []domain.DistrictAverage) []string {
	var districts []string
	for _, a := range averages {
		districts = append(districts, a.District)
	}
	slices.Sort(districts)
	return slices.Compact(districts)
}
