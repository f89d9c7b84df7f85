package sqlite

import (
	"context"
	"testing"
)

// setupTestDB opens a migrated in-memory journal. The single connection keeps
// the database alive until the test's cleanup closes it.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := open(context.Background(), ":memory:", t.Name())
	if err != nil {
		t.Fatalf("open test journal: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}
