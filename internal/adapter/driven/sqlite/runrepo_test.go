package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

func TestRunRepo_RecordAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	started := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	id, err := repo.StartRun(ctx, model.RunModeUpdate, started)
	require.NoError(t, err)

	ok := model.UpdateResult{
		Kind: model.ResourceUser, Identifier: "u1@x.com",
		State: model.StateVerified, Success: true, Submitted: true,
	}
	failed := model.UpdateResult{
		Kind: model.ResourceGroup, Identifier: "g1@x.com",
		State: model.StateSubmitFailed, Cause: model.CauseAPIError,
		Reason:   "directory api: 403 forbidden",
		APIError: &model.APIError{Status: 403, Reason: "forbidden"},
	}
	require.NoError(t, repo.RecordEntry(ctx, id, ok))
	require.NoError(t, repo.RecordEntry(ctx, id, failed))

	summary := model.RunSummary{ID: id, FinishedAt: started.Add(3 * time.Second), Succeeded: 1, Failed: 1}
	require.NoError(t, repo.FinishRun(ctx, summary))

	runs, err := repo.ListRecent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, id, run.ID)
	assert.Equal(t, model.RunModeUpdate, run.Mode)
	assert.True(t, started.Equal(run.StartedAt))
	assert.True(t, started.Add(3*time.Second).Equal(run.FinishedAt))
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed)

	require.Len(t, run.Results, 2)
	assert.Equal(t, ok, run.Results[0])
	assert.Equal(t, "g1@x.com", run.Results[1].Identifier)
	assert.Equal(t, model.CauseAPIError, run.Results[1].Cause)
	require.NotNil(t, run.Results[1].APIError)
	assert.Equal(t, 403, run.Results[1].APIError.Status)
	assert.Equal(t, "forbidden", run.Results[1].APIError.Reason)
}

func TestRunRepo_ListRecentNewestFirstAndLimited(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	var ids []int64
	for i := range 3 {
		id, err := repo.StartRun(ctx, model.RunModeUpdate, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.True(t, runs[0].FinishedAt.IsZero(), "unfinished run has no finish time")
	assert.Empty(t, runs[0].Results)
}

func TestRunRepo_ListRecentEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)

	runs, err := repo.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewDB_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posixsync.db")
	ctx := context.Background()

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	require.NoError(t, RunMigrations(db.Writer), "re-running migrations is a no-op")
	assert.Equal(t, path, db.Path())

	id, err := NewRunRepo(db).StartRun(ctx, model.RunModeUpdate, time.Now())
	require.NoError(t, err)
	assert.Positive(t, id)
}
