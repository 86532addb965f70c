package activity

import "context"

// Repository provides persistence operations for log entries.
type Repository interface {
	Append(ctx context.Context, entry *LogEntry) error
	List(ctx context.Context, opts ListOptions) ([]LogEntry, error)
}
