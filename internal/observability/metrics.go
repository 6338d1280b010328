package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the snapshot pipeline.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec // labels: outcome={completed,faulted}
	RunDuration      prometheus.Histogram
	PipelineRunning  prometheus.Gauge
	LastSuccess      prometheus.Gauge
	SnapshotsWritten *prometheus.CounterVec // labels: snapshot
	WriteErrors      prometheus.Counter

	// Source metrics.
	SourceFetches  *prometheus.CounterVec   // labels: source, outcome={ok,degraded}
	SourceDuration *prometheus.HistogramVec // labels: source

	// Headline readings from the last completed run.
	KpIndex  prometheus.Gauge
	Dst      prometheus.Gauge
	XrayFlux prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.PipelineRunning,
		m.LastSuccess,
		m.SnapshotsWritten,
		m.WriteErrors,
		m.SourceFetches,
		m.SourceDuration,
		m.KpIndex,
		m.Dst,
		m.XrayFlux,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacewx",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spacewx",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-classify-write run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 15, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spacewx",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spacewx",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
		SnapshotsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacewx",
			Name:      "snapshots_written_total",
			Help:      "Snapshot documents written by name.",
		}, []string{"snapshot"}),
		WriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spacewx",
			Name:      "write_errors_total",
			Help:      "Total snapshot write failures.",
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacewx",
			Name:      "source_fetches_total",
			Help:      "Source collections by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spacewx",
			Name:      "source_duration_seconds",
			Help:      "Time spent collecting one source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		KpIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spacewx",
			Name:      "kp_index",
			Help:      "Planetary K-index from the last completed run.",
		}),
		Dst: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spacewx",
			Name:      "dst_nanotesla",
			Help:      "Dst index from the last completed run.",
		}),
		XrayFlux: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spacewx",
			Name:      "xray_flux_watts_per_m2",
			Help:      "GOES long-band X-ray flux from the last completed run.",
		}),
	}
}
