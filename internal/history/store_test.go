package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/airlogic/comfobridge/internal/history"
	"github.com/airlogic/comfobridge/internal/infrastructure/database"
	_ "github.com/airlogic/comfobridge/migrations" // real schema
)

// openTestStore creates a store on a temporary migrated database.
func openTestStore(t *testing.T) *history.Store {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return history.NewStore(db)
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	values := []string{"11.5", "12.0", "12.5"}
	for i, v := range values {
		if err := store.Record("temp_outside", v, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := store.Record("airflow_supply", "45", base); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := store.Recent(ctx, "temp_outside", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Recent() returned %d entries, want 3", len(entries))
	}

	// Newest first
	if entries[0].Value != "12.5" || entries[2].Value != "11.5" {
		t.Errorf("Recent() order = %v, want newest first", entries)
	}
	for _, e := range entries {
		if e.Attribute != "temp_outside" {
			t.Errorf("entry attribute = %q, want temp_outside", e.Attribute)
		}
	}

	if !entries[0].RecordedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("RecordedAt = %v, want %v", entries[0].RecordedAt, base.Add(2*time.Minute))
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 10; i++ {
		if err := store.Record("fan_speed", "3", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := store.Recent(ctx, "fan_speed", 4)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("Recent() returned %d entries, want 4", len(entries))
	}
}

func TestRecentUnknownAttribute(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Recent(context.Background(), "temp_outside", 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() returned %d entries, want 0", len(entries))
	}
}

func TestRecordValidation(t *testing.T) {
	store := openTestStore(t)

	if err := store.Record("", "1", time.Now()); err == nil {
		t.Error("Record() with empty attribute should fail")
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	fresh := time.Now().UTC()

	if err := store.Record("temp_outside", "10.0", old); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := store.Record("temp_outside", "12.0", fresh); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	deleted, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d rows, want 1", deleted)
	}

	entries, err := store.Recent(ctx, "temp_outside", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Value != "12.0" {
		t.Errorf("surviving entries = %v, want only the fresh one", entries)
	}
}

func TestPruneValidation(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Prune(context.Background(), 0); err == nil {
		t.Error("Prune() with zero retention should fail")
	}
}
