package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// earthquake data pipeline.
type Metrics struct {
	// Refresh (merge/re-encode) metrics.
	RefreshRuns         *prometheus.CounterVec // labels: outcome={success,fetch_error,load_error,persist_error}
	EventsAdded         prometheus.Counter
	EventsSkipped       prometheus.Counter
	RecordsDropped      prometheus.Counter
	MagnitudesDefaulted prometheus.Counter
	RefreshDuration     prometheus.Histogram
	EncodedPoints       prometheus.Gauge

	// Artifact cache metrics.
	CacheLoads *prometheus.CounterVec // labels: artifact={binary,stats}, result={hit,load,error}

	// Feed client metrics.
	FeedRequestDuration prometheus.Histogram

	// Downstream notification metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_globe",
			Name:      "refresh_runs_total",
			Help:      "Refresh invocations by outcome.",
		}, []string{"outcome"}),
		EventsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_globe",
			Name:      "events_added_total",
			Help:      "New events admitted into the historical catalog by merges.",
		}),
		EventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_globe",
			Name:      "events_skipped_total",
			Help:      "Recent events skipped as duplicates of historical records.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_globe",
			Name:      "records_dropped_total",
			Help:      "Raw records excluded during normalization for missing coordinates or time.",
		}),
		MagnitudesDefaulted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_globe",
			Name:      "magnitudes_defaulted_total",
			Help:      "Records whose missing magnitude fell back to the default value.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_globe",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-merge-encode-persist cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		EncodedPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_globe",
			Name:      "encoded_points",
			Help:      "Point count of the most recently encoded binary.",
		}),
		CacheLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_globe",
			Name:      "cache_loads_total",
			Help:      "Artifact cache accesses by artifact and result.",
		}, []string{"artifact", "result"}),
		FeedRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_globe",
			Name:      "feed_request_duration_seconds",
			Help:      "USGS feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_globe",
			Name:      "events_published_total",
			Help:      "Newly admitted events published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_globe",
			Name:      "publish_errors_total",
			Help:      "Failed publishes of newly admitted events.",
		}),
	}

	prometheus.MustRegister(
		m.RefreshRuns,
		m.EventsAdded,
		m.EventsSkipped,
		m.RecordsDropped,
		m.MagnitudesDefaulted,
		m.RefreshDuration,
		m.EncodedPoints,
		m.CacheLoads,
		m.FeedRequestDuration,
		m.EventsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RefreshRuns:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_globe", Name: "refresh_runs_total"}, []string{"outcome"}),
		EventsAdded:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_globe", Name: "events_added_total"}),
		EventsSkipped:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_globe", Name: "events_skipped_total"}),
		RecordsDropped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_globe", Name: "records_dropped_total"}),
		MagnitudesDefaulted: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_globe", Name: "magnitudes_defaulted_total"}),
		RefreshDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_globe", Name: "refresh_duration_seconds"}),
		EncodedPoints:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_globe", Name: "encoded_points"}),
		CacheLoads:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_globe", Name: "cache_loads_total"}, []string{"artifact", "result"}),
		FeedRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_globe", Name: "feed_request_duration_seconds"}),
		EventsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_globe", Name: "events_published_total"}),
		PublishErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_globe", Name: "publish_errors_total"}),
	}
}
