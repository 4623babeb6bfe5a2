package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wanlens/internal/domain"
	"wanlens/internal/graph"
	"wanlens/internal/metrics"
	"wanlens/internal/repository"
	"wanlens/internal/repository/sqlite"
	"wanlens/internal/service"
)

const uploadBody = `{
  "serviceability": {
    "locations": {
      "loc-ams": {"lat": 52.37, "lng": 4.89, "code": "ams", "name": "Amsterdam"},
      "loc-fra": {"lat": 50.11, "lng": 8.68, "code": "fra", "name": "Frankfurt"},
      "loc-lon": {"lat": 51.50, "lng": -0.12, "code": "lon", "name": "London"}
    },
    "devices": {
      "dev-ams": {"code": "ams-dz1", "location_pk": "loc-ams"},
      "dev-fra": {"code": "fra-dz1", "location_pk": "loc-fra"},
      "dev-lon": {"code": "lon-dz1", "location_pk": "loc-lon"}
    },
    "links": {
      "l1": {"code": "ams-dz1:fra-dz1", "delay_ns": 10000, "bandwidth": 10000000000},
      "l2": {"code": "fra-dz1:lon-dz1", "delay_ns": 5000, "bandwidth": 100000000000}
    }
  },
  "telemetry": {
    "device_latency_samples": [{"link_pk": "l1", "samples": [10, 10, 10]}]
  },
  "isis": null
}`

type testServer struct {
	router  http.Handler
	svc     *service.TopologyService
	metrics *metrics.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := metrics.NewRegistry()
	svc := service.NewTopologyService(service.Options{
		Repo:    repo,
		Metrics: reg,
		Logger:  logger,
		Now:     func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})

	router := NewRouter(NewTopologyHandler(svc, logger), RouterOptions{
		Metrics:    reg,
		CORSOrigin: "*",
		Logger:     logger,
	})
	return &testServer{router: router, svc: svc, metrics: reg}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T) RunResponse {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/correlate", uploadBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","has_result":false}`, rec.Body.String())

	s.upload(t)
	rec = s.do(http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok","has_result":true}`, rec.Body.String())
}

func TestNoResultYet(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/api/topology", "/api/summary", "/api/export/yaml"} {
		rec := s.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestCorrelate(t *testing.T) {
	s := newTestServer(t)

	resp := s.upload(t)
	require.NotNil(t, resp.Run)
	assert.Equal(t, service.TriggerUpload, resp.Run.Source)
	assert.Equal(t, 2, resp.Summary.TotalLinks)
	assert.Equal(t, 1, resp.Summary.MissingTelemetry)
	assert.Equal(t, 1, resp.Summary.MissingISIS)
	assert.Equal(t, 110.0, resp.BandwidthStats.TotalCapacityGbps)
}

func TestCorrelate_BadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"serviceability":`},
		{"missing serviceability", `{"telemetry": {"device_latency_samples": []}}`},
		{"serviceability wrong shape", `{"serviceability": []}`},
		{"telemetry wrong shape", `{"serviceability": {"links": {}}, "telemetry": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/correlate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeError(t, rec).Error)
		})
	}
}

func TestGetTopology(t *testing.T) {
	s := newTestServer(t)
	s.upload(t)

	tests := []struct {
		name    string
		query   string
		wantPKs []string
	}{
		{"all", "", []string{"l1", "l2"}},
		{"health", "?health=missing_telemetry", []string{"l2"}},
		{"health any of", "?health=MISSING_TELEMETRY,MISSING_ISIS", []string{"l1", "l2"}},
		{"completeness", "?completeness=MISSING_ISIS", []string{"l1"}},
		{"tier", "?tier=100", []string{"l2"}},
		{"location either side", "?location=lon", []string{"l2"}},
		{"and across params", "?tier=10&location=lon", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/api/topology"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var result domain.Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			pks := make([]string, 0, len(result.Topology))
			for _, l := range result.Topology {
				pks = append(pks, l.PK)
			}
			assert.Equal(t, tt.wantPKs, pks)
			assert.Equal(t, 2, result.Summary.TotalLinks, "summary describes the full pass")
		})
	}
}

func TestGetTopology_InvalidFilter(t *testing.T) {
	s := newTestServer(t)
	s.upload(t)

	rec := s.do(http.MethodGet, "/api/topology?health=BROKEN&tier=7", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decodeError(t, rec).Details, 2)
}

func TestGetSummary(t *testing.T) {
	s := newTestServer(t)
	s.upload(t)

	rec := s.do(http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.TotalLinks)
	assert.Equal(t, 3, resp.Locations)
	assert.Equal(t, 2, resp.BandwidthStats.LinksWithBandwidth)
}

func TestFindPath(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/path", `{"sourceDeviceId":"ams-dz1","destinationDeviceId":"lon-dz1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.upload(t)

	t.Run("found", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/path", `{"sourceDeviceId":"ams-dz1","destinationDeviceId":"lon-dz1","strategy":"latency"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var path graph.PathResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &path))
		assert.Equal(t, 2, path.TotalHops)
		assert.InDelta(t, 15.0, path.TotalLatencyUs, 1e-9)
		require.NotNil(t, path.MinBandwidthGbps)
		assert.Equal(t, 10.0, *path.MinBandwidthGbps)
		assert.Equal(t, 0.0, path.PathReliability)
	})

	t.Run("no path is null", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/path", `{"sourceDeviceId":"ams-dz1","destinationDeviceId":"nyc-dz1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("unknown strategy", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/path", `{"sourceDeviceId":"ams-dz1","destinationDeviceId":"lon-dz1","strategy":"cost"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/path", `{"sourceDeviceId":"ams-dz1"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Details, "Destination: field is required")
	})
}

func TestRuns(t *testing.T) {
	s := newTestServer(t)
	first := s.upload(t)
	second := s.upload(t)

	rec := s.do(http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []repository.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, second.Run.ID, runs[0].ID)

	rec = s.do(http.MethodGet, "/api/runs?limit=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)

	rec = s.do(http.MethodGet, "/api/runs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/runs/"+first.Run.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail RunDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, first.Run.ID, detail.Run.ID)
	assert.Len(t, detail.Result.Topology, 2)

	rec = s.do(http.MethodGet, "/api/runs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	run := s.upload(t)

	rec := s.do(http.MethodGet, "/api/export/yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "link_pk: l1")

	rec = s.do(http.MethodGet, "/api/export/json?run="+run.Run.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Topology, 2)

	rec = s.do(http.MethodGet, "/api/export/xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh_NoSources(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMiddleware(t *testing.T) {
	s := newTestServer(t)

	t.Run("cors preflight", func(t *testing.T) {
		rec := s.do(http.MethodOptions, "/api/topology", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("metrics recorded by route pattern", func(t *testing.T) {
		s.do(http.MethodGet, "/api/runs/abc", "")
		rec := s.do(http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `path="GET /api/runs/{id}"`)
	})

	t.Run("recover", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}), Recover(logger))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestChain_Order(t *testing.T) {
	var order bytes.Buffer
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order.WriteString(name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order.WriteString("h")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "abh", order.String())
}
