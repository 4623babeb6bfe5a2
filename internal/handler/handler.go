package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wanlens/internal/codec"
	"wanlens/internal/domain"
	"wanlens/internal/graph"
	"wanlens/internal/repository"
	"wanlens/internal/service"
)

// MaxUploadBytes caps the body of a correlate upload
const MaxUploadBytes = 64 << 20

// TopologyHandler serves correlation results, path queries and run history
type TopologyHandler struct {
	svc    *service.TopologyService
	logger *slog.Logger
}

// NewTopologyHandler creates a new topology handler
func NewTopologyHandler(svc *service.TopologyService, logger *slog.Logger) *TopologyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopologyHandler{svc: svc, logger: logger.With("component", "api")}
}

// Register adds the API routes to mux
func (h *TopologyHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/topology", h.GetTopology)
	mux.HandleFunc("GET /api/summary", h.GetSummary)
	mux.HandleFunc("POST /api/correlate", h.Correlate)
	mux.HandleFunc("POST /api/refresh", h.Refresh)
	mux.HandleFunc("POST /api/path", h.FindPath)
	mux.HandleFunc("GET /api/runs", h.ListRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/export/{format}", h.Export)
}

// CorrelateRequest carries an uploaded snapshot. Telemetry and ISIS may be
// omitted.
type CorrelateRequest struct {
	Serviceability json.RawMessage `json:"serviceability"`
	Telemetry      json.RawMessage `json:"telemetry,omitempty"`
	ISIS           json.RawMessage `json:"isis,omitempty"`
}

// RunResponse is returned after a correlation pass
type RunResponse struct {
	Run            *repository.Run       `json:"run"`
	Summary        domain.Summary        `json:"summary"`
	BandwidthStats domain.BandwidthStats `json:"bandwidth_stats"`
}

// RunDetail is a stored run with its result
type RunDetail struct {
	Run    *repository.Run `json:"run"`
	Result *domain.Result  `json:"result"`
}

// SummaryResponse describes the latest result without its topology
type SummaryResponse struct {
	GeneratedAt    time.Time             `json:"generated_at"`
	Summary        domain.Summary        `json:"summary"`
	BandwidthStats domain.BandwidthStats `json:"bandwidth_stats"`
	Locations      int                   `json:"locations"`
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status    string `json:"status"`
	HasResult bool   `json:"has_result"`
}

// Health reports liveness
func (h *TopologyHandler) Health(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.Latest(r.Context())
	writeJSON(w, HealthResponse{Status: "ok", HasResult: err == nil}, http.StatusOK)
}

// GetTopology returns the latest result, filtered by query parameters
func (h *TopologyHandler) GetTopology(w http.ResponseWriter, r *http.Request) {
	criteria, details := parseFilter(r)
	if len(details) > 0 {
		writeError(w, "Invalid filter", http.StatusBadRequest, details...)
		return
	}

	result, ok := h.latest(w, r)
	if !ok {
		return
	}
	if !criteria.IsEmpty() {
		result = result.Filter(criteria)
	}
	writeJSON(w, result, http.StatusOK)
}

// GetSummary returns the summary of the latest result
func (h *TopologyHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w, r)
	if !ok {
		return
	}
	writeJSON(w, SummaryResponse{
		GeneratedAt:    result.GeneratedAt,
		Summary:        result.Summary,
		BandwidthStats: result.BandwidthStats,
		Locations:      len(result.Locations),
	}, http.StatusOK)
}

// Correlate runs a pass over an uploaded snapshot
func (h *TopologyHandler) Correlate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var req CorrelateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest, err.Error())
		return
	}

	run, result, err := h.svc.Correlate(r.Context(), codec.Snapshot{
		Serviceability: rawDocument(req.Serviceability),
		Telemetry:      rawDocument(req.Telemetry),
		ISIS:           rawDocument(req.ISIS),
	})
	if err != nil {
		var inputErr *codec.InputError
		if errors.As(err, &inputErr) {
			writeError(w, inputErr.Error(), http.StatusBadRequest, inputErr.Details...)
			return
		}
		h.logger.Error("failed to correlate upload", "error", err)
		writeError(w, "Failed to correlate snapshot", http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, RunResponse{Run: run, Summary: result.Summary, BandwidthStats: result.BandwidthStats}, http.StatusCreated)
}

// rawDocument maps an omitted or null document to absent
func rawDocument(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// Refresh fetches the documents from the configured sources
func (h *TopologyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	run, result, err := h.svc.Refresh(r.Context(), service.TriggerManual)
	if err != nil {
		if errors.Is(err, service.ErrNoSources) {
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
		var inputErr *codec.InputError
		if errors.As(err, &inputErr) {
			writeError(w, inputErr.Error(), http.StatusBadGateway, inputErr.Details...)
			return
		}
		writeError(w, "Refresh failed", http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, RunResponse{Run: run, Summary: result.Summary, BandwidthStats: result.BandwidthStats}, http.StatusOK)
}

// FindPath answers a shortest-path query. A missing path is a 200 with a
// null body.
func (h *TopologyHandler) FindPath(w http.ResponseWriter, r *http.Request) {
	var req service.PathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, "Invalid path request", http.StatusBadRequest, formatValidationError(err)...)
		return
	}

	path, err := h.svc.FindPath(r.Context(), req)
	switch {
	case errors.Is(err, graph.ErrUnknownStrategy):
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrNoSnapshot):
		writeError(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("path query failed", "error", err)
		writeError(w, "Path query failed", http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, path, http.StatusOK)
}

// ListRuns returns stored runs, newest first
func (h *TopologyHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, "Invalid limit", http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeError(w, "Failed to list runs", http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, runs, http.StatusOK)
}

// GetRun returns one stored run with its result
func (h *TopologyHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		h.writeRunError(w, id, err)
		return
	}
	result, err := h.svc.GetRunResult(r.Context(), id)
	if err != nil {
		h.writeRunError(w, id, err)
		return
	}
	writeJSON(w, RunDetail{Run: run, Result: result}, http.StatusOK)
}

func (h *TopologyHandler) writeRunError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, "Not found", http.StatusNotFound, "run "+id+" not found")
		return
	}
	h.logger.Error("failed to get run", "run_id", id, "error", err)
	writeError(w, "Failed to get run", http.StatusInternalServerError, err.Error())
}

// Export writes the latest result, or the run named by ?run=, in the
// requested format
func (h *TopologyHandler) Export(w http.ResponseWriter, r *http.Request) {
	exporter, err := codec.ExporterFor(r.PathValue("format"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var result *domain.Result
	if id := r.URL.Query().Get("run"); id != "" {
		result, err = h.svc.GetRunResult(r.Context(), id)
		if err != nil {
			h.writeRunError(w, id, err)
			return
		}
	} else {
		var ok bool
		if result, ok = h.latest(w, r); !ok {
			return
		}
	}

	format := exporter.Format()
	contentType := "application/json"
	if format == "yaml" {
		contentType = "application/x-yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=topology."+format)

	if err := exporter.Export(result, w); err != nil {
		// headers are already sent
		h.logger.Error("failed to export result", "format", format, "error", err)
	}
}

func (h *TopologyHandler) latest(w http.ResponseWriter, r *http.Request) (*domain.Result, bool) {
	result, err := h.svc.Latest(r.Context())
	if errors.Is(err, service.ErrNoSnapshot) {
		writeError(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load latest result", "error", err)
		writeError(w, "Failed to load latest result", http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return result, true
}

// parseFilter reads topology filters from the query string
func parseFilter(r *http.Request) (domain.FilterCriteria, []string) {
	q := r.URL.Query()
	var details []string

	var health []domain.HealthStatus
	for _, v := range splitParam(q.Get("health")) {
		s := domain.HealthStatus(strings.ToUpper(v))
		if !s.Valid() {
			details = append(details, "health: unknown status "+v)
			continue
		}
		health = append(health, s)
	}

	var completeness []domain.DataCompleteness
	for _, v := range splitParam(q.Get("completeness")) {
		c := domain.DataCompleteness(strings.ToUpper(v))
		if !c.Valid() {
			details = append(details, "completeness: unknown value "+v)
			continue
		}
		completeness = append(completeness, c)
	}

	var tiers []domain.BandwidthTier
	for _, v := range splitParam(q.Get("tier")) {
		n, err := strconv.Atoi(v)
		t := domain.BandwidthTier(n)
		if err != nil || !t.Valid() {
			details = append(details, "tier: unknown tier "+v)
			continue
		}
		tiers = append(tiers, t)
	}

	locations := splitParam(q.Get("location"))

	return domain.NewFilterCriteria(health, completeness, tiers, locations), details
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
