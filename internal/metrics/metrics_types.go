// Package metrics exposes Prometheus metrics for correlation passes, path
// queries and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// Correlation Metrics
	CorrelationRunsTotal     *prometheus.CounterVec
	CorrelationDuration      prometheus.Histogram
	CorrelationLastSuccess   prometheus.Gauge
	LinksByHealth            *prometheus.GaugeVec
	LinksByCompleteness      *prometheus.GaugeVec
	LinksSkipped             prometheus.Gauge
	TotalCapacityGbps        prometheus.Gauge
	SourceFetchDuration      *prometheus.HistogramVec
	SourceFetchFailuresTotal *prometheus.CounterVec

	// Path Metrics
	PathQueriesTotal  *prometheus.CounterVec
	PathQueryDuration *prometheus.HistogramVec
	PathHops          prometheus.Histogram

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// SSE Metrics
	SSEClients prometheus.GaugeFunc

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
	}

	r.initCorrelationMetrics()
	r.initPathMetrics()
	r.initHTTPMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
