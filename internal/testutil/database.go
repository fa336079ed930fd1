// Package testutil provides shared test helpers for storage-backed tests.
package testutil

import (
	"context"
	"testing"

	"github.com/dhalloway/pennywise/internal/storage"
)

// DefaultCategories is the seeded category set used across tests. It matches
// the application's default directory, including the mandatory "Other".
var DefaultCategories = []string{
	"Groceries",
	"Dining",
	"Transportation",
	"Subscriptions",
	"Shopping",
	"Entertainment",
	"Utilities",
	"Income",
	"Other",
}

// SetupTestDB creates a migrated in-memory SQLite store seeded with the given
// categories (DefaultCategories when none are passed) and registers cleanup.
func SetupTestDB(t *testing.T, categories ...string) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(categories) == 0 {
		categories = DefaultCategories
	}
	for _, name := range categories {
		if _, err := store.CreateCategory(ctx, name); err != nil {
			t.Fatalf("failed to seed category %q: %v", name, err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
