package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/repository"
)

// PageRepository implements page reads, counting, seeding and guarded
// lifecycle updates for SQLite
type PageRepository struct {
	db *DB
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(db *DB) *PageRepository {
	return &PageRepository{db: db}
}

const pageColumns = `
	p.id, p.tractate_id, t.name, p.idx, p.label, p.status,
	p.claimed_by, p.claimed_by_name, p.claimed_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*catalog.Page, error) {
	var p catalog.Page
	var claimedBy, claimedByName sql.NullString
	var claimedAt sql.NullTime
	if err := row.Scan(
		&p.ID,
		&p.TractateID,
		&p.TractateName,
		&p.Index,
		&p.Label,
		&p.Status,
		&claimedBy,
		&claimedByName,
		&claimedAt,
	); err != nil {
		return nil, err
	}
	if claimedBy.Valid {
		p.ClaimedBy = &claimedBy.String
	}
	if claimedByName.Valid {
		p.ClaimedByName = &claimedByName.String
	}
	if claimedAt.Valid {
		at := claimedAt.Time.UTC()
		p.ClaimedAt = &at
	}
	return &p, nil
}

// Get retrieves a page by ID, joined with its tractate name
func (r *PageRepository) Get(ctx context.Context, id string) (*catalog.Page, error) {
	query := `SELECT ` + pageColumns + `
		FROM pages p
		JOIN tractates t ON t.id = p.tractate_id
		WHERE p.id = ?`

	p, err := scanPage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return p, nil
}

// List returns pages matching the options, ordered by tractate then index
func (r *PageRepository) List(ctx context.Context, opts catalog.ListPagesOptions) ([]catalog.Page, error) {
	query := `SELECT ` + pageColumns + `
		FROM pages p
		JOIN tractates t ON t.id = p.tractate_id`

	args := []interface{}{}
	conditions := []string{}

	if opts.TractateID != "" {
		conditions = append(conditions, "p.tractate_id = ?")
		args = append(args, opts.TractateID)
	}
	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, s := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		conditions = append(conditions, "p.status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if opts.ClaimedBy != nil {
		conditions = append(conditions, "p.claimed_by = ?")
		args = append(args, *opts.ClaimedBy)
	}

	if len(conditions) > 0 {
		query += " WHERE " + joinConditions(conditions)
	}

	query += " ORDER BY t.position, p.idx"

	switch {
	case opts.Limit > 0:
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	case opts.Offset > 0:
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []catalog.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page rows: %w", err)
	}
	return pages, nil
}

// CountPages counts pages, optionally only those in one status
func (r *PageRepository) CountPages(ctx context.Context, status *catalog.PageStatus) (int, error) {
	query := `SELECT COUNT(*) FROM pages`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// UpdateStatus applies change only if the row still matches guard. The
// check and the write are one statement, so concurrent callers cannot both
// pass the same guard.
func (r *PageRepository) UpdateStatus(ctx context.Context, id string, guard lifecycle.Guard, change lifecycle.Change) error {
	query := `
		UPDATE pages
		SET status = ?, claimed_by = ?, claimed_by_name = ?, claimed_at = ?
		WHERE id = ? AND status = ? AND claimed_by IS ?
	`

	result, err := r.db.ExecContext(ctx, query,
		change.Status,
		change.ClaimedBy,
		change.ClaimedByName,
		change.ClaimedAt,
		id,
		guard.Status,
		guard.ClaimedBy,
	)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return repository.ErrForeignKeyViolation
		case isCheckViolation(err):
			return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
		}
		return fmt.Errorf("failed to update page status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM pages WHERE id = ?)`
		if err := r.db.QueryRowContext(ctx, checkQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check page existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		// Page exists but no longer matches the guard
		return repository.ErrConflict
	}

	return nil
}

// ReplaceCatalog wipes tractates and pages and inserts the given catalog in
// one transaction.
func (r *PageRepository) ReplaceCatalog(ctx context.Context, tractates []catalog.Tractate, pages []catalog.Page) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("failed to clear pages: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tractates`); err != nil {
		return fmt.Errorf("failed to clear tractates: %w", err)
	}

	tractateStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tractates (id, name, seder, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare tractate insert: %w", err)
	}
	defer tractateStmt.Close()

	for _, t := range tractates {
		if _, err = tractateStmt.ExecContext(ctx, t.ID, t.Name, t.Seder, t.Position); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("tractate %q: %w", t.Name, repository.ErrDuplicate)
			}
			return fmt.Errorf("failed to insert tractate: %w", err)
		}
	}

	pageStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (id, tractate_id, idx, label, status) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer pageStmt.Close()

	for _, p := range pages {
		if _, err = pageStmt.ExecContext(ctx, p.ID, p.TractateID, p.Index, p.Label, catalog.StatusAvailable); err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to insert page: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}
