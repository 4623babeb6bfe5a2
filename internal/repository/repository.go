package repository

import (
	"context"
	"errors"
	"time"

	"wanlens/internal/domain"
)

// ErrNotFound is returned when a requested run does not exist
var ErrNotFound = errors.New("not found")

// Run is the stored metadata of one correlation pass
type Run struct {
	ID          string         `json:"id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Source      string         `json:"source"`
	Summary     domain.Summary `json:"summary"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Repository persists correlation run history
type Repository interface {
	// SaveRun stores run metadata together with the full result
	SaveRun(ctx context.Context, run *Run, result *domain.Result) error

	// GetRun returns run metadata
	GetRun(ctx context.Context, id string) (*Run, error)
	// GetRunResult returns the stored result of a run
	GetRunResult(ctx context.Context, id string) (*domain.Result, error)
	// ListRuns returns the newest runs first; limit <= 0 means no limit
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// LatestResult returns the newest stored run and its result
	LatestResult(ctx context.Context) (*Run, *domain.Result, error)

	// PruneRuns deletes all but the newest keep runs
	PruneRuns(ctx context.Context, keep int) (int64, error)

	// Close releases resources
	Close() error
}
