package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

// setupTestDB opens a migrated run history database in a per-test temporary
// directory. It goes through NewDB so tests see the production pragmas.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
