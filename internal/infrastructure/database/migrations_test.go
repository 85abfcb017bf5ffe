package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

// withMigrations swaps the embedded filesystem for the duration of a test.
func withMigrations(t *testing.T, files map[string]string) {
	t.Helper()

	mapFS := fstest.MapFS{}
	for name, sql := range files {
		mapFS[name] = &fstest.MapFile{Data: []byte(sql)}
	}

	orig := MigrationsFS
	MigrationsFS = mapFS
	t.Cleanup(func() { MigrationsFS = orig })
}

// TestMigrate verifies migration application.
func TestMigrate(t *testing.T) {
	withMigrations(t, map[string]string{
		"001_create_samples.sql": `
			CREATE TABLE samples (
				id INTEGER PRIMARY KEY,
				value TEXT NOT NULL
			);
		`,
	})

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Verify table was created
	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='samples'",
	).Scan(&tableName)
	if err != nil {
		t.Fatalf("table samples not created: %v", err)
	}

	// Verify migration was recorded
	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("recorded migrations = %d, want 1", count)
	}
}

// TestMigrateIdempotent verifies re-running migrations is safe.
func TestMigrateIdempotent(t *testing.T) {
	withMigrations(t, map[string]string{
		"001_create_samples.sql": "CREATE TABLE samples (id INTEGER PRIMARY KEY);",
	})

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("recorded migrations = %d, want 1", count)
	}
}

// TestMigrateOrder verifies migrations apply oldest first.
func TestMigrateOrder(t *testing.T) {
	withMigrations(t, map[string]string{
		"002_add_column.sql":     "ALTER TABLE ordered ADD COLUMN extra TEXT;",
		"001_create_ordered.sql": "CREATE TABLE ordered (id INTEGER PRIMARY KEY);",
	})

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	// 002 depends on 001; success proves ordering
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
}

// TestMigrateFailureRollsBack verifies a failing migration leaves no
// partial state and earlier migrations stay committed.
func TestMigrateFailureRollsBack(t *testing.T) {
	withMigrations(t, map[string]string{
		"001_create_good.sql": "CREATE TABLE good (id INTEGER PRIMARY KEY);",
		"002_broken.sql":      "CREATE TABLE broken (id INTEGER PRIMARY KEY; -- syntax error",
	})

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	if err := db.Migrate(ctx); err == nil {
		t.Fatal("Migrate() should fail on broken SQL")
	}

	// First migration stays applied
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("recorded migrations = %d, want 1", count)
	}
}

// TestMigrateNoFS verifies a nil filesystem is a no-op.
func TestMigrateNoFS(t *testing.T) {
	orig := MigrationsFS
	MigrationsFS = nil
	t.Cleanup(func() { MigrationsFS = orig })

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Migrate() with no FS error = %v", err)
	}
}

// TestParseMigrationFilename verifies filename parsing.
func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{"001_create_readings.sql", "001", "create_readings", true},
		{"010_add_index.sql", "010", "add_index", true},
		{"notamigration.sql", "", "", false},
		{"001_.sql", "", "", false},
		{"readme.md", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parsed %q/%q, want %q/%q", version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}
