package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/repository"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append inserts a new log entry
func (r *ActivityRepository) Append(ctx context.Context, entry *activity.LogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	query := `INSERT INTO log_entries (id, message, created_at, visible) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Message,
		createdAt,
		entry.Visible,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to append log entry: %w", err)
	}

	entry.CreatedAt = createdAt
	return nil
}

// List returns log entries newest first. Entries with the same timestamp
// come back in reverse insertion order.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.LogEntry, error) {
	query := `SELECT id, message, created_at, visible FROM log_entries`

	args := []interface{}{}
	if !opts.IncludeHidden {
		query += " WHERE visible = 1"
	}

	query += " ORDER BY created_at DESC, seq DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	entries := []activity.LogEntry{}
	for rows.Next() {
		var entry activity.LogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Message,
			&entry.CreatedAt,
			&entry.Visible,
		); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log rows: %w", err)
	}

	return entries, nil
}
