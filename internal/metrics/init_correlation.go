package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCorrelationMetrics() {
	r.CorrelationRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanlens_correlation_runs_total",
			Help: "Total number of correlation passes",
		},
		[]string{"trigger", "status"},
	)

	r.CorrelationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wanlens_correlation_duration_seconds",
			Help:    "Correlation pass latency in seconds, including source fetches",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.CorrelationLastSuccess = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wanlens_correlation_last_success_timestamp_seconds",
			Help: "Unix time of the last successful correlation pass",
		},
	)

	r.LinksByHealth = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wanlens_links",
			Help: "Correlated links by health status in the latest pass",
		},
		[]string{"health_status"},
	)

	r.LinksByCompleteness = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wanlens_links_by_completeness",
			Help: "Correlated links by data completeness in the latest pass",
		},
		[]string{"data_completeness"},
	)

	r.LinksSkipped = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wanlens_links_skipped",
			Help: "Declared links dropped from the latest pass",
		},
	)

	r.TotalCapacityGbps = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wanlens_total_capacity_gbps",
			Help: "Sum of known link bandwidth in the latest pass",
		},
	)

	r.SourceFetchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wanlens_source_fetch_duration_seconds",
			Help:    "Snapshot document fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"document", "kind"},
	)

	r.SourceFetchFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanlens_source_fetch_failures_total",
			Help: "Total number of failed snapshot document fetches",
		},
		[]string{"document", "kind"},
	)
}

func (r *Registry) initPathMetrics() {
	r.PathQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanlens_path_queries_total",
			Help: "Total number of shortest-path queries",
		},
		[]string{"strategy", "outcome"},
	)

	r.PathQueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wanlens_path_query_duration_seconds",
			Help:    "Shortest-path query latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"strategy"},
	)

	r.PathHops = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wanlens_path_hops",
			Help:    "Hop count of found paths",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12, 16},
		},
	)
}
