package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "technews_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "technews_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Upstream article fetches, labelled by language and outcome
	UpstreamFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "technews_upstream_fetches_total",
			Help: "Total number of upstream article fetches",
		},
		[]string{"language", "status"},
	)

	ArticlesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "technews_articles_fetched_total",
			Help: "Total number of articles received from upstream",
		},
		[]string{"language"},
	)

	// Recent-items cache outcomes
	RecentWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "technews_recent_writes_total",
			Help: "Recent-items writes by outcome (ok, degraded, invalid, failed)",
		},
		[]string{"outcome"},
	)

	RecentMalformedReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "technews_recent_malformed_reads_total",
			Help: "Reads that found malformed persisted data and discarded it",
		},
	)

	// Web vitals reported by browsers
	WebVitalValues = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "technews_web_vital_value",
			Help:    "Reported web-vital values by metric name",
			Buckets: []float64{0.01, 0.1, 0.25, 0.5, 1, 2.5, 5, 100, 200, 500, 1000, 2500, 4000, 8000},
		},
		[]string{"name"},
	)
)
