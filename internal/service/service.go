package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"wanlens/internal/codec"
	"wanlens/internal/correlate"
	"wanlens/internal/domain"
	"wanlens/internal/graph"
	"wanlens/internal/metrics"
	"wanlens/internal/repository"
	"wanlens/internal/source"
)

// Refresh triggers, recorded as the run source
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerWatch    = "watch"
	TriggerManual   = "manual"
	TriggerUpload   = "upload"
)

var (
	// ErrNoSnapshot is returned when no correlation pass has completed yet
	ErrNoSnapshot = errors.New("no correlation result available")
	// ErrNoSources is returned by Refresh when no sources are configured
	ErrNoSources = errors.New("no snapshot sources configured")
)

// PathRequest asks for the cheapest path between two device codes
type PathRequest struct {
	Source      string `json:"sourceDeviceId" validate:"required"`
	Destination string `json:"destinationDeviceId" validate:"required"`
	Strategy    string `json:"strategy,omitempty"`
}

// CompletedPayload is published with EventCorrelationCompleted
type CompletedPayload struct {
	RunID       string         `json:"run_id"`
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     domain.Summary `json:"summary"`
}

// FailedPayload is published with EventCorrelationFailed
type FailedPayload struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Options configures a TopologyService
type Options struct {
	Repo       repository.Repository
	Sources    *source.Set
	Correlator *correlate.Correlator
	EventBus   *EventBus
	Metrics    *metrics.Registry
	Logger     *slog.Logger
	// RetainRuns keeps at most this many runs; 0 keeps all
	RetainRuns int
	Now        func() time.Time
}

// TopologyService owns the latest correlation result and the path graphs
// derived from it
type TopologyService struct {
	repo       repository.Repository
	sources    *source.Set
	correlator *correlate.Correlator
	eventBus   *EventBus
	metrics    *metrics.Registry
	logger     *slog.Logger
	retainRuns int
	now        func() time.Time

	// passMu serializes correlation passes so runs are stored in order
	passMu sync.Mutex

	mu        sync.RWMutex
	latest    *domain.Result
	latestRun *repository.Run
	graphs    map[graph.Strategy]*graph.Graph
}

// NewTopologyService creates a new topology service
func NewTopologyService(opts Options) *TopologyService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	correlator := opts.Correlator
	if correlator == nil {
		correlator = correlate.New(correlate.Options{Logger: logger, Now: now})
	}
	return &TopologyService{
		repo:       opts.Repo,
		sources:    opts.Sources,
		correlator: correlator,
		eventBus:   opts.EventBus,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "topology"),
		retainRuns: opts.RetainRuns,
		now:        now,
		graphs:     make(map[graph.Strategy]*graph.Graph),
	}
}

// Refresh fetches all documents from the configured sources and runs a
// correlation pass
func (s *TopologyService) Refresh(ctx context.Context, trigger string) (*repository.Run, *domain.Result, error) {
	if s.sources == nil {
		return nil, nil, ErrNoSources
	}

	s.passMu.Lock()
	defer s.passMu.Unlock()

	start := time.Now()
	snap, err := s.sources.Fetch(ctx)
	if err != nil {
		s.fail(trigger, err, time.Since(start))
		return nil, nil, err
	}
	return s.correlate(ctx, snap, trigger, start)
}

// Correlate runs a correlation pass over an uploaded snapshot
func (s *TopologyService) Correlate(ctx context.Context, snap codec.Snapshot) (*repository.Run, *domain.Result, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	return s.correlate(ctx, snap, TriggerUpload, time.Now())
}

func (s *TopologyService) correlate(ctx context.Context, snap codec.Snapshot, trigger string, start time.Time) (*repository.Run, *domain.Result, error) {
	result, err := s.correlator.CorrelateSnapshot(snap)
	if err != nil {
		s.fail(trigger, err, time.Since(start))
		return nil, nil, err
	}

	run := &repository.Run{
		ID:          uuid.New().String(),
		GeneratedAt: result.GeneratedAt,
		Source:      trigger,
		Summary:     result.Summary,
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, run, result); err != nil {
			err = fmt.Errorf("save run: %w", err)
			s.fail(trigger, err, time.Since(start))
			return nil, nil, err
		}
		s.prune(ctx)
	}

	s.setLatest(run, result)

	if s.metrics != nil {
		s.metrics.RecordCorrelation(trigger, result, time.Since(start))
	}
	s.logger.Info("correlation pass stored",
		"run_id", run.ID,
		"source", trigger,
		"links", result.Summary.TotalLinks,
		"skipped", result.Summary.SkippedLinks,
		"duration", time.Since(start),
	)
	s.eventBus.Publish(Event{
		Type: EventCorrelationCompleted,
		Payload: CompletedPayload{
			RunID:       run.ID,
			Source:      trigger,
			GeneratedAt: result.GeneratedAt,
			Summary:     result.Summary,
		},
	})

	return run, result, nil
}

func (s *TopologyService) fail(trigger string, err error, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCorrelation(trigger, nil, elapsed)
	}
	s.logger.Error("correlation pass failed", "source", trigger, "error", err)
	s.eventBus.Publish(Event{
		Type:    EventCorrelationFailed,
		Payload: FailedPayload{Source: trigger, Error: err.Error()},
	})
}

func (s *TopologyService) prune(ctx context.Context) {
	if s.retainRuns <= 0 {
		return
	}
	deleted, err := s.repo.PruneRuns(ctx, s.retainRuns)
	if err != nil {
		s.logger.Warn("failed to prune runs", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Debug("pruned runs", "deleted", deleted)
		s.eventBus.Publish(Event{
			Type:    EventRunsPruned,
			Payload: map[string]int64{"deleted": deleted},
		})
	}
}

func (s *TopologyService) setLatest(run *repository.Run, result *domain.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = result
	s.latestRun = run
	s.graphs = make(map[graph.Strategy]*graph.Graph)
}

// Latest returns the newest correlation result. After a restart it is
// loaded from run history.
func (s *TopologyService) Latest(ctx context.Context) (*domain.Result, error) {
	s.mu.RLock()
	result := s.latest
	s.mu.RUnlock()
	if result != nil {
		return result, nil
	}

	if s.repo == nil {
		return nil, ErrNoSnapshot
	}
	run, result, err := s.repo.LatestResult(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		s.latest = result
		s.latestRun = run
		s.graphs = make(map[graph.Strategy]*graph.Graph)
	}
	return s.latest, nil
}

// LatestRun returns metadata of the newest pass held in memory
func (s *TopologyService) LatestRun() *repository.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestRun
}

// Graph returns the path graph for strategy over the latest result
func (s *TopologyService) Graph(ctx context.Context, strategy graph.Strategy) (*graph.Graph, error) {
	if _, err := s.Latest(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.graphs[strategy]; ok {
		return g, nil
	}
	g := graph.Build(s.latest.Topology, strategy)
	s.graphs[strategy] = g
	return g, nil
}

// FindPath returns the cheapest path for req, or nil when the endpoints are
// unknown or disconnected
func (s *TopologyService) FindPath(ctx context.Context, req PathRequest) (*graph.PathResult, error) {
	strategy, err := graph.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	g, err := s.Graph(ctx, strategy)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	path, err := graph.ShortestPathContext(ctx, g, req.Source, req.Destination)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		hops := -1
		if path != nil {
			hops = path.TotalHops
		}
		s.metrics.RecordPathQuery(string(strategy), hops, time.Since(start))
	}
	return path, nil
}

// ListRuns returns stored runs, newest first
func (s *TopologyService) ListRuns(ctx context.Context, limit int) ([]repository.Run, error) {
	if s.repo == nil {
		return []repository.Run{}, nil
	}
	return s.repo.ListRuns(ctx, limit)
}

// GetRun returns one stored run
func (s *TopologyService) GetRun(ctx context.Context, id string) (*repository.Run, error) {
	if s.repo == nil {
		return nil, repository.ErrNotFound
	}
	return s.repo.GetRun(ctx, id)
}

// GetRunResult returns the stored result of one run
func (s *TopologyService) GetRunResult(ctx context.Context, id string) (*domain.Result, error) {
	if s.repo == nil {
		return nil, repository.ErrNotFound
	}
	return s.repo.GetRunResult(ctx, id)
}

// Run refreshes on interval until ctx is done. A non-positive interval only
// performs the startup refresh.
func (s *TopologyService) Run(ctx context.Context, interval time.Duration) {
	if _, _, err := s.Refresh(ctx, TriggerStartup); err != nil && ctx.Err() == nil {
		s.logger.Warn("startup refresh failed", "error", err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := s.Refresh(ctx, TriggerInterval); err != nil && ctx.Err() == nil {
				s.logger.Warn("scheduled refresh failed", "error", err)
			}
		}
	}
}
