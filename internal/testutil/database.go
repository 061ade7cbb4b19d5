// Package testutil provides shared fixtures for tests: an isolated session
// database and generated backend data.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/expensy/internal/storage"
)

// SetupSessionStore creates a migrated in-memory session database that is
// closed when the test ends.
func SetupSessionStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return store
}
