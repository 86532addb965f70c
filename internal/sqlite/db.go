package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection.
// The pool is limited to one connection: SQLite serializes writers anyway,
// and an in-memory database only lives as long as its connection.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. It is safe to run on every start.
func (db *DB) RunMigrations() error {
	migration := `
-- Users
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

-- Login sessions, keyed by token hash
CREATE TABLE IF NOT EXISTS sessions (
    token_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Tractates
CREATE TABLE IF NOT EXISTS tractates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    seder TEXT NOT NULL CHECK(seder IN ('Zraim', 'Moed', 'Nashim', 'Nezikin', 'Kodshim', 'Taharot')),
    position INTEGER NOT NULL
);

-- Pages
CREATE TABLE IF NOT EXISTS pages (
    id TEXT PRIMARY KEY,
    tractate_id TEXT NOT NULL,
    idx INTEGER NOT NULL CHECK(idx >= 0),
    label TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('available', 'drafted', 'taken', 'completed')),
    claimed_by TEXT,
    claimed_by_name TEXT,
    claimed_at TIMESTAMP,
    UNIQUE (tractate_id, idx),
    CHECK ((status = 'available') = (claimed_by IS NULL)),
    FOREIGN KEY (tractate_id) REFERENCES tractates(id),
    FOREIGN KEY (claimed_by) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_pages_status ON pages(status);
CREATE INDEX IF NOT EXISTS idx_pages_claimed_by ON pages(claimed_by);

-- Activity log
CREATE TABLE IF NOT EXISTS log_entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    message TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    visible INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_log_visible_created ON log_entries(visible, created_at);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
