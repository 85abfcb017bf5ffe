package history

import (
	"context"
	"fmt"
	"time"

	"github.com/airlogic/comfobridge/internal/infrastructure/database"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500

	// recordTimeout bounds a single insert so a locked database never
	// stalls the publish pipeline.
	recordTimeout = 2 * time.Second
)

// Entry is one recorded reading.
type Entry struct {
	ID         int64
	Attribute  string
	Value      string
	RecordedAt time.Time
}

// Store persists published readings to SQLite.
//
// Values are stored as text exactly as published to MQTT, so the
// history reflects what subscribers actually saw.
type Store struct {
	db *database.DB
}

// NewStore creates a reading history store.
//
// Parameters:
//   - db: Open database with migrations applied
//
// Returns:
//   - *Store: Store instance ready for use
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Record inserts one reading.
//
// Parameters:
//   - attribute: Attribute name (e.g. "temp_outside")
//   - value: Value as published (e.g. "12.5")
//   - at: Timestamp of the reading
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (s *Store) Record(attribute, value string, at time.Time) error {
	if attribute == "" {
		return fmt.Errorf("attribute is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO readings (attribute, value, recorded_at) VALUES (?, ?, ?)",
		attribute,
		value,
		at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	return nil
}

// Recent returns the latest entries for an attribute, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - attribute: Attribute name
//   - limit: Maximum entries to return (default 50, max 500)
//
// Returns:
//   - []Entry: Entries ordered by recorded_at DESC
//   - error: nil on success, otherwise the underlying query error
func (s *Store) Recent(ctx context.Context, attribute string, limit int) ([]Entry, error) {
	if attribute == "" {
		return nil, fmt.Errorf("attribute is required")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, attribute, value, recorded_at
		 FROM readings
		 WHERE attribute = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		attribute,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var recordedAt string

		if err := rows.Scan(&entry.ID, &entry.Attribute, &entry.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}

		entry.RecordedAt, err = time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Retention window (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM readings WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting readings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// RunPruner deletes expired entries once a day until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation
//   - retention: Retention window passed to Prune
//   - onError: Called for each failed prune (optional)
func (s *Store) RunPruner(ctx context.Context, retention time.Duration, onError func(error)) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx, retention); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
