package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aqi_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the AQI pipeline.
type Metrics struct {
	ReadingsProcessed prometheus.Counter
	ReadingsSkipped   prometheus.Counter
	AggregateSkipped  *prometheus.CounterVec // labels: scope
	PipelineRunning   prometheus.Gauge

	// Artifact cache metrics.
	ArtifactCache  *prometheus.CounterVec // labels: kind={dataset,averages,model,map,plot}, result={hit,miss}
	ArtifactErrors *prometheus.CounterVec // labels: kind

	// Stage and scope metrics.
	StageDuration        *prometheus.HistogramVec // labels: stage
	ScopeFailures        *prometheus.CounterVec   // labels: scope
	PredictionsPublished prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReadingsProcessed,
		m.ReadingsSkipped,
		m.AggregateSkipped,
		m.PipelineRunning,
		m.ArtifactCache,
		m.ArtifactErrors,
		m.StageDuration,
		m.ScopeFailures,
		m.PredictionsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already registered"
// panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_processed_total",
			Help:      "Total readings converted to AQI values.",
		}),
		ReadingsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_skipped_total",
			Help:      "Total readings skipped for invalid concentrations.",
		}),
		AggregateSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_rows_skipped_total",
			Help:      "AQI records dropped during aggregation for an unparsable time period.",
		}, []string{"scope"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress, 0 otherwise.",
		}),
		ArtifactCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_cache_total",
			Help:      "Artifact cache lookups by artifact kind and result.",
		}, []string{"kind", "result"}),
		ArtifactErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_errors_total",
			Help:      "Artifact producer or write failures by artifact kind.",
		}, []string{"kind"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		ScopeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scope_failures_total",
			Help:      "Scopes whose downstream artifacts could not be produced.",
		}, []string{"scope"}),
		PredictionsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_published_total",
			Help:      "Predictions written to the forecast topic.",
		}),
	}
}
