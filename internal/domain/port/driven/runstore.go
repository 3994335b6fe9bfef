package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// RunStore records orchestrator runs and their per-entry results.
type RunStore interface {
	// StartRun creates a run record and returns its ID.
	StartRun(ctx context.Context, mode model.RunMode, startedAt time.Time) (int64, error)

	// RecordEntry appends one entry result to a run.
	RecordEntry(ctx context.Context, runID int64, result model.UpdateResult) error

	// FinishRun stores the finish time and totals of a run.
	FinishRun(ctx context.Context, summary model.RunSummary) error

	// ListRecent returns the most recent runs, newest first, with their
	// entries in recording order.
	ListRecent(ctx context.Context, limit int) ([]model.RunSummary, error)
}
