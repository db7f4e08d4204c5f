package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for map render passes.
type Metrics struct {
	// Feed fetch metrics.
	FeedRequests      *prometheus.CounterVec // labels: outcome={success,error}
	FeedFetchDuration prometheus.Histogram
	FeedCache         *prometheus.CounterVec // labels: result={hit,miss,error}
	FeaturesParsed    prometheus.Counter

	// Render pass metrics.
	RenderPasses     *prometheus.CounterVec // labels: outcome={success,fetch_error,parse_error,invalid_view}
	RenderDuration   prometheus.Histogram
	MarkersPerPass   prometheus.Histogram
	MarkersPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.FeedRequests,
		m.FeedFetchDuration,
		m.FeedCache,
		m.FeaturesParsed,
		m.RenderPasses,
		m.RenderDuration,
		m.MarkersPerPass,
		m.MarkersPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "feed_requests_total",
			Help:      "Earthquake feed requests by outcome.",
		}, []string{"outcome"}),
		FeedFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakemap",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of one earthquake feed request.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "feed_cache_total",
			Help:      "Feed cache lookups by result.",
		}, []string{"result"}),
		FeaturesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "features_parsed_total",
			Help:      "Total earthquake features decoded from the feed.",
		}),
		RenderPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "render_passes_total",
			Help:      "Fetch-transform-compose passes by outcome.",
		}, []string{"outcome"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakemap",
			Name:      "render_duration_seconds",
			Help:      "Duration of a complete render pass.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		MarkersPerPass: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakemap",
			Name:      "markers_per_pass",
			Help:      "Number of markers produced by one render pass.",
			Buckets:   []float64{0, 10, 100, 500, 1000, 2500, 5000, 10000},
		}),
		MarkersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "markers_published_total",
			Help:      "Total markers written to the marker topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakemap",
			Name:      "publish_errors_total",
			Help:      "Total failed marker publish attempts.",
		}),
	}
}
