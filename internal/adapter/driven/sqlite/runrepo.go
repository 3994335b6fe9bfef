package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo is the SQLite implementation of the RunStore port interface.
// Timestamps are stored as RFC 3339 UTC text.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// StartRun inserts a run row and returns its ID.
func (r *RunRepo) StartRun(ctx context.Context, mode model.RunMode, startedAt time.Time) (int64, error) {
	const query = `INSERT INTO runs (mode, started_at) VALUES (?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query, string(mode), formatTime(startedAt))
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("start run: last insert id: %w", err)
	}
	return id, nil
}

// RecordEntry appends one entry result to the run.
func (r *RunRepo) RecordEntry(ctx context.Context, runID int64, result model.UpdateResult) error {
	const query = `
		INSERT INTO run_entries (
			run_id, kind, identifier, state, cause, success, submitted,
			reason, warning, api_status, api_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var apiStatus sql.NullInt64
	var apiReason sql.NullString
	if result.APIError != nil {
		apiStatus = sql.NullInt64{Int64: int64(result.APIError.Status), Valid: true}
		apiReason = sql.NullString{String: result.APIError.Reason, Valid: true}
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		runID, string(result.Kind), result.Identifier, string(result.State), string(result.Cause),
		boolToInt(result.Success), boolToInt(result.Submitted),
		result.Reason, result.Warning, apiStatus, apiReason,
	)
	if err != nil {
		return fmt.Errorf("record %s entry %s for run %d: %w", result.Kind, result.Identifier, runID, err)
	}
	return nil
}

// FinishRun stores the finish time and totals of summary's run.
func (r *RunRepo) FinishRun(ctx context.Context, summary model.RunSummary) error {
	const query = `UPDATE runs SET finished_at = ?, succeeded = ?, failed = ? WHERE id = ?`
	_, err := r.db.Writer.ExecContext(ctx, query,
		formatTime(summary.FinishedAt), summary.Succeeded, summary.Failed, summary.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", summary.ID, err)
	}
	return nil
}

// ListRecent returns up to limit runs, newest first, each with its entries in
// recording order.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]model.RunSummary, error) {
	const query = `
		SELECT id, mode, started_at, finished_at, succeeded, failed
		FROM runs ORDER BY id DESC LIMIT ?
	`
	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		var run model.RunSummary
		var mode, startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&run.ID, &mode, &startedAt, &finishedAt, &run.Succeeded, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Mode = model.RunMode(mode)

		run.StartedAt, err = parseTime(startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for run %d: %w", run.ID, err)
		}
		if finishedAt.Valid {
			run.FinishedAt, err = parseTime(finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse finished_at for run %d: %w", run.ID, err)
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		entries, err := r.listEntries(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Results = entries
	}

	return runs, nil
}

func (r *RunRepo) listEntries(ctx context.Context, runID int64) ([]model.UpdateResult, error) {
	const query = `
		SELECT kind, identifier, state, cause, success, submitted, reason, warning, api_status, api_reason
		FROM run_entries WHERE run_id = ? ORDER BY id
	`
	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list entries for run %d: %w", runID, err)
	}
	defer rows.Close()

	var entries []model.UpdateResult
	for rows.Next() {
		var e model.UpdateResult
		var kind, state, cause string
		var success, submitted int
		var apiStatus sql.NullInt64
		var apiReason sql.NullString
		if err := rows.Scan(&kind, &e.Identifier, &state, &cause, &success, &submitted,
			&e.Reason, &e.Warning, &apiStatus, &apiReason); err != nil {
			return nil, fmt.Errorf("scan entry for run %d: %w", runID, err)
		}
		e.Kind = model.ResourceKind(kind)
		e.State = model.UpdateState(state)
		e.Cause = model.FailureCause(cause)
		e.Success = success == 1
		e.Submitted = submitted == 1
		if apiStatus.Valid {
			e.APIError = &model.APIError{Status: int(apiStatus.Int64), Reason: apiReason.String}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries for run %d: %w", runID, err)
	}

	return entries, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
