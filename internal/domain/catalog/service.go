package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/dafmemorial/internal/repository"
)

// Service handles catalog queries.
type Service struct {
	tractates TractateRepository
	pages     PageRepository
	logger    *slog.Logger
}

// NewService creates a new catalog service.
func NewService(tractates TractateRepository, pages PageRepository, logger *slog.Logger) *Service {
	return &Service{tractates: tractates, pages: pages, logger: logger}
}

// ListTractates returns every tractate in canonical order with its page counts.
func (s *Service) ListTractates(ctx context.Context) ([]TractateSummary, error) {
	summaries, err := s.tractates.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tractates: %w", err)
	}
	return summaries, nil
}

// GetTractate fetches a tractate by ID.
func (s *Service) GetTractate(ctx context.Context, id string) (*Tractate, error) {
	t, err := s.tractates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTractateNotFound
		}
		return nil, fmt.Errorf("getting tractate: %w", err)
	}
	return t, nil
}

// GetPage fetches a page by ID.
func (s *Service) GetPage(ctx context.Context, id string) (*Page, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	p, err := s.pages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("getting page: %w", err)
	}
	return p, nil
}

// ListPages returns pages matching opts, ordered by tractate then index.
func (s *Service) ListPages(ctx context.Context, opts ListPagesOptions) ([]Page, error) {
	for _, st := range opts.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
		}
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, ErrInvalidInput
	}
	if opts.TractateID != "" {
		if _, err := s.GetTractate(ctx, opts.TractateID); err != nil {
			return nil, err
		}
	}
	pages, err := s.pages.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return pages, nil
}

// UserProgress returns the pages a user holds with completion figures.
func (s *Service) UserProgress(ctx context.Context, userID string) (*UserProgress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	pages, err := s.pages.List(ctx, ListPagesOptions{ClaimedBy: &userID})
	if err != nil {
		return nil, fmt.Errorf("listing user pages: %w", err)
	}

	progress := &UserProgress{UserID: userID, Pages: pages, Total: len(pages)}
	for _, p := range pages {
		switch p.Status {
		case StatusCompleted:
			progress.Completed++
		case StatusTaken:
			progress.InProgress++
		}
	}
	if progress.Total > 0 {
		progress.Percent = float64(progress.Completed) / float64(progress.Total) * 100
	}
	if progress.Pages == nil {
		progress.Pages = []Page{}
	}
	return progress, nil
}
