package metrics

import (
	"time"

	"wanlens/internal/domain"
)

// RecordCorrelation records a finished correlation pass. result is nil for a
// failed pass.
func (r *Registry) RecordCorrelation(trigger string, result *domain.Result, duration time.Duration) {
	r.CorrelationDuration.Observe(duration.Seconds())
	if result == nil {
		r.CorrelationRunsTotal.WithLabelValues(trigger, "error").Inc()
		return
	}
	r.CorrelationRunsTotal.WithLabelValues(trigger, "ok").Inc()
	r.CorrelationLastSuccess.Set(float64(result.GeneratedAt.Unix()))

	s := result.Summary
	r.LinksByHealth.WithLabelValues(string(domain.HealthHealthy)).Set(float64(s.Healthy))
	r.LinksByHealth.WithLabelValues(string(domain.HealthDriftHigh)).Set(float64(s.DriftHigh))
	r.LinksByHealth.WithLabelValues(string(domain.HealthMissingTelemetry)).Set(float64(s.MissingTelemetry))
	r.LinksByHealth.WithLabelValues(string(domain.HealthMissingISIS)).Set(float64(s.MissingISIS))

	c := s.Completeness
	r.LinksByCompleteness.WithLabelValues(string(domain.CompletenessComplete)).Set(float64(c.Complete))
	r.LinksByCompleteness.WithLabelValues(string(domain.CompletenessMissingISIS)).Set(float64(c.MissingISIS))
	r.LinksByCompleteness.WithLabelValues(string(domain.CompletenessMissingTelemetry)).Set(float64(c.MissingTelemetry))
	r.LinksByCompleteness.WithLabelValues(string(domain.CompletenessMissingBoth)).Set(float64(c.MissingBoth))

	r.LinksSkipped.Set(float64(s.SkippedLinks))
	r.TotalCapacityGbps.Set(result.BandwidthStats.TotalCapacityGbps)
}

// RecordSourceFetch records one document fetch
func (r *Registry) RecordSourceFetch(document, kind string, duration time.Duration, err error) {
	r.SourceFetchDuration.WithLabelValues(document, kind).Observe(duration.Seconds())
	if err != nil {
		r.SourceFetchFailuresTotal.WithLabelValues(document, kind).Inc()
	}
}

// RecordPathQuery records a shortest-path query. hops is negative when no
// path was found.
func (r *Registry) RecordPathQuery(strategy string, hops int, duration time.Duration) {
	r.PathQueryDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if hops < 0 {
		r.PathQueriesTotal.WithLabelValues(strategy, "no_path").Inc()
		return
	}
	r.PathQueriesTotal.WithLabelValues(strategy, "found").Inc()
	r.PathHops.Observe(float64(hops))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
