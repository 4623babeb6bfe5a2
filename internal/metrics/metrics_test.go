package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"

	"wanlens/internal/domain"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	if r.CorrelationRunsTotal == nil {
		t.Error("CorrelationRunsTotal not initialized")
	}
	if r.PathQueriesTotal == nil {
		t.Error("PathQueriesTotal not initialized")
	}
	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("prometheus registry not initialized")
	}
}

func TestRecordCorrelation(t *testing.T) {
	r := NewRegistry()

	result := &domain.Result{
		GeneratedAt: time.Unix(1700000000, 0),
		Summary: domain.Summary{
			TotalLinks:       5,
			Healthy:          2,
			DriftHigh:        1,
			MissingTelemetry: 1,
			MissingISIS:      1,
			Completeness:     domain.CompletenessCounts{Complete: 3, MissingTelemetry: 1, MissingBoth: 1},
			SkippedLinks:     4,
		},
		BandwidthStats: domain.BandwidthStats{TotalCapacityGbps: 250},
	}

	r.RecordCorrelation("manual", result, 20*time.Millisecond)
	r.RecordCorrelation("manual", nil, 5*time.Millisecond)

	if v := counterValue(t, r.CorrelationRunsTotal.WithLabelValues("manual", "ok")); v != 1 {
		t.Errorf("ok runs = %v, want 1", v)
	}
	if v := counterValue(t, r.CorrelationRunsTotal.WithLabelValues("manual", "error")); v != 1 {
		t.Errorf("error runs = %v, want 1", v)
	}
	if v := gaugeValue(t, r.LinksByHealth.WithLabelValues("HEALTHY")); v != 2 {
		t.Errorf("healthy links = %v, want 2", v)
	}
	if v := gaugeValue(t, r.LinksByCompleteness.WithLabelValues("MISSING_BOTH")); v != 1 {
		t.Errorf("missing both = %v, want 1", v)
	}
	if v := gaugeValue(t, r.LinksSkipped); v != 4 {
		t.Errorf("skipped = %v, want 4", v)
	}
	if v := gaugeValue(t, r.TotalCapacityGbps); v != 250 {
		t.Errorf("capacity = %v, want 250", v)
	}
	if v := gaugeValue(t, r.CorrelationLastSuccess); v != 1700000000 {
		t.Errorf("last success = %v, want 1700000000", v)
	}
}

func TestRecordPathQuery(t *testing.T) {
	r := NewRegistry()

	r.RecordPathQuery("latency", 3, time.Millisecond)
	r.RecordPathQuery("latency", 2, time.Millisecond)
	r.RecordPathQuery("hops", -1, time.Millisecond)

	if v := counterValue(t, r.PathQueriesTotal.WithLabelValues("latency", "found")); v != 2 {
		t.Errorf("found = %v, want 2", v)
	}
	if v := counterValue(t, r.PathQueriesTotal.WithLabelValues("hops", "no_path")); v != 1 {
		t.Errorf("no_path = %v, want 1", v)
	}
}

func TestRecordSourceFetch(t *testing.T) {
	r := NewRegistry()

	r.RecordSourceFetch("isis", "ssh", time.Second, nil)
	r.RecordSourceFetch("isis", "ssh", time.Second, errors.New("dial failed"))

	if v := counterValue(t, r.SourceFetchFailuresTotal.WithLabelValues("isis", "ssh")); v != 1 {
		t.Errorf("failures = %v, want 1", v)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/api/topology", "200", 10*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/api/topology", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, counter); v != 1 {
		t.Errorf("Counter value = %v, want 1", v)
	}
}

func TestRegisterSSEClients(t *testing.T) {
	r := NewRegistry()
	clients := 3
	r.RegisterSSEClients(func() int { return clients })

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "wanlens_sse_clients" {
			if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 3 {
				t.Errorf("sse clients = %v, want 3", got)
			}
			return
		}
	}
	t.Error("wanlens_sse_clients not gathered")
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordPathQuery("hops", 1, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `wanlens_path_queries_total{outcome="found",strategy="hops"} 1`) {
		t.Errorf("exposition missing path query counter:\n%s", rec.Body.String())
	}
}
