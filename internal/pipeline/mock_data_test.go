package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/aqi-forecast-etl/internal/adapter/maps"
	"github.com/couchcryptid/aqi-forecast-etl/internal/artifact"
	"github.com/couchcryptid/aqi-forecast-etl/internal/config"
	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	"github.com/couchcryptid/aqi-forecast-etl/internal/observability"
	"github.com/couchcryptid/aqi-forecast-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const pm25 = "Fine particles (PM 2.5)"

// PM2.5 concentrations that score exactly 40, 42 and 44.
var pm25ByYear = map[int]float64{2018: 9.6, 2019: 10.08, 2020: 10.56}

type mockRow struct {
	pollutant string
	district  string
	period    string
	value     string
}

// standardRows gives BK01 the same index in every period of a year, so every
// scope averages to 40, 42, 44 over 2018-2020.
func standardRows() []mockRow {
	var rows []mockRow
	for _, year := range []int{2018, 2019, 2020} {
		v := fmt.Sprintf("%g", pm25ByYear[year])
		rows = append(rows,
			mockRow{pm25, "BK01", fmt.Sprintf("Annual Average %d", year), v},
			mockRow{pm25, "BK01", fmt.Sprintf("Winter %d-%02d", year, (year+1)%100), v},
			mockRow{pm25, "BK01", fmt.Sprintf("Summer %d", year), v},
		)
	}
	rows = append(rows, mockRow{"Boiler Emissions- Total SO2 Emissions", "BK01", "2015", "0.3"})
	return rows
}

func rawCSV(rows []mockRow) []byte {
	var buf bytes.Buffer
	buf.WriteString("Unique ID,Name,Geo Place Name,Time Period,Data Value\n")
	for i, r := range rows {
		fmt.Fprintf(&buf, "%d,%s,%s,%s,%s\n", i+1, r.pollutant, r.district, r.period, r.value)
	}
	return buf.Bytes()
}

type memSource struct {
	data  []byte
	err   error
	opens atomic.Int64
}

func (s *memSource) Open(context.Context) (io.ReadCloser, error) {
	s.opens.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type countingStore struct {
	*artifact.MemoryStore
	puts atomic.Int64
}

func (s *countingStore) Put(ctx context.Context, key string, data []byte) error {
	s.puts.Add(1)
	return s.MemoryStore.Put(ctx, key, data)
}

// failingRenderer fails the historical maps of one scope, or only one year of
// it when year is set. failPlots fails every district plot.
type failingRenderer struct {
	*maps.Renderer
	scope     domain.Scope
	year      int
	failPlots bool
	calls     atomic.Int64 // historical renders of scope
}

func (r *failingRenderer) RenderAverages(scope domain.Scope, year int, avgs []domain.DistrictAverage) ([]byte, error) {
	if scope == r.scope {
		r.calls.Add(1)
		if r.year == 0 || r.year == year {
			return nil, errors.New("renderer unavailable")
		}
	}
	return r.Renderer.RenderAverages(scope, year, avgs)
}

func (r *failingRenderer) RenderDistrictPlot(district string, avgs []domain.DistrictAverage) ([]byte, error) {
	if r.failPlots {
		return nil, errors.New("plotter unavailable")
	}
	return r.Renderer.RenderDistrictPlot(district, avgs)
}

type recordingPublisher struct {
	mu    sync.Mutex
	runID string
	preds []domain.Prediction
}

func (p *recordingPublisher) PublishForecasts(_ context.Context, runID string, preds []domain.Prediction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runID = runID
	p.preds = append(p.preds, preds...)
	return nil
}

type recordingSink struct {
	averages []domain.DistrictAverage
	preds    []domain.Prediction
	err      error
}

func (s *recordingSink) UpsertAverages(_ context.Context, avgs []domain.DistrictAverage) error {
	if s.err != nil {
		return s.err
	}
	s.averages = append(s.averages, avgs...)
	return nil
}

func (s *recordingSink) UpsertPredictions(_ context.Context, _ string, preds []domain.Prediction) error {
	s.preds = append(s.preds, preds...)
	return nil
}

type harness struct {
	renderer *maps.Renderer
	store    *countingStore
	source   *memSource
	metrics  *observability.Metrics
	stages   pipeline.Stages
	opts     pipeline.Options
}

func newHarness(t *testing.T, rows []mockRow) *harness {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	table, err := domain.DefaultBreakpoints()
	require.NoError(t, err)
	renderer, err := maps.NewRenderer(table)
	require.NoError(t, err)

	src := &memSource{data: rawCSV(rows)}
	return &harness{
		renderer: renderer,
		store:    &countingStore{MemoryStore: artifact.NewMemoryStore()},
		source:   src,
		metrics:  observability.NewMetricsForTesting(),
		stages: pipeline.Stages{
			Source:     src,
			Calculator: domain.NewCalculator(table),
			Renderer:   renderer,
		},
		opts: pipeline.Options{
			RunID:         "test-run",
			Pollutants:    config.DefaultPollutants,
			ForecastYears: 5,
			MapWorkers:    2,
		},
	}
}

func (h *harness) pipeline() *pipeline.Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := artifact.NewCache(h.store, logger, h.metrics)
	return pipeline.New(cache, h.stages, h.opts, logger, h.metrics)
}
