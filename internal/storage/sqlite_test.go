package storage

import (
	"context"
	"testing"
)

func TestMigrateIsIdempotent(t *testing.T) {
	store := setupCacheTestStorage(t)

	// A second run applies nothing and succeeds
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestCreateCategory(t *testing.T) {
	store := setupCacheTestStorage(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Dining")
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if cat.ID == 0 || cat.Name != "Dining" {
		t.Errorf("unexpected category %+v", cat)
	}

	// Creating the same name again returns the existing row
	again, err := store.CreateCategory(ctx, "Dining")
	if err != nil {
		t.Fatalf("failed on duplicate create: %v", err)
	}
	if again.ID != cat.ID {
		t.Errorf("duplicate create returned id %d, want %d", again.ID, cat.ID)
	}

	byName, err := store.GetCategoryByName(ctx, "Dining")
	if err != nil {
		t.Fatalf("failed to get by name: %v", err)
	}
	if byName == nil || byName.ID != cat.ID {
		t.Errorf("lookup by name returned %+v", byName)
	}

	missing, err := store.GetCategoryByName(ctx, "Nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing category, got %+v", missing)
	}

	categories, err := store.GetCategories(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(categories) != 1 {
		t.Errorf("expected 1 category, got %d", len(categories))
	}
}
