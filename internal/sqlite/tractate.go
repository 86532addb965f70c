package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/repository"
)

// TractateRepository implements catalog.TractateRepository for SQLite
type TractateRepository struct {
	db *DB
}

// NewTractateRepository creates a new TractateRepository
func NewTractateRepository(db *DB) *TractateRepository {
	return &TractateRepository{db: db}
}

// List returns all tractates in canonical order
func (r *TractateRepository) List(ctx context.Context) ([]catalog.Tractate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, seder, position FROM tractates ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tractates: %w", err)
	}
	defer rows.Close()

	tractates := []catalog.Tractate{}
	for rows.Next() {
		var t catalog.Tractate
		if err := rows.Scan(&t.ID, &t.Name, &t.Seder, &t.Position); err != nil {
			return nil, fmt.Errorf("failed to scan tractate: %w", err)
		}
		tractates = append(tractates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tractate rows: %w", err)
	}
	return tractates, nil
}

// Get retrieves a tractate by ID
func (r *TractateRepository) Get(ctx context.Context, id string) (*catalog.Tractate, error) {
	var t catalog.Tractate
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, seder, position FROM tractates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Seder, &t.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tractate: %w", err)
	}
	return &t, nil
}

// ListSummaries returns tractates with per-status page counts
func (r *TractateRepository) ListSummaries(ctx context.Context) ([]catalog.TractateSummary, error) {
	query := `
		SELECT
			t.id, t.name, t.seder, t.position,
			COUNT(p.id) AS total,
			COALESCE(SUM(CASE WHEN p.status = 'available' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.status = 'drafted' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.status = 'taken' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM tractates t
		LEFT JOIN pages p ON p.tractate_id = t.id
		GROUP BY t.id
		ORDER BY t.position
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tractate summaries: %w", err)
	}
	defer rows.Close()

	summaries := []catalog.TractateSummary{}
	for rows.Next() {
		var s catalog.TractateSummary
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Seder, &s.Position,
			&s.Counts.Total,
			&s.Counts.Available,
			&s.Counts.Drafted,
			&s.Counts.Taken,
			&s.Counts.Completed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tractate summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tractate summary rows: %w", err)
	}
	return summaries, nil
}
