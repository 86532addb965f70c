package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service handles activity log operations.
type Service struct {
	repo         Repository
	logger       *slog.Logger
	defaultLimit int
	now          func() time.Time
}

// NewService creates a new activity service. defaultLimit <= 0 falls back
// to DefaultListLimit.
func NewService(repo Repository, logger *slog.Logger, defaultLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = DefaultListLimit
	}
	return &Service{
		repo:         repo,
		logger:       logger,
		defaultLimit: defaultLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// EmitClaim appends a visible entry announcing the claim.
func (s *Service) EmitClaim(ctx context.Context, event ClaimEvent) (*LogEntry, error) {
	if strings.TrimSpace(event.PageLabel) == "" || strings.TrimSpace(event.TractateName) == "" {
		return nil, fmt.Errorf("%w: claim event needs a page label and tractate", ErrInvalidInput)
	}
	entry := &LogEntry{
		ID:        uuid.NewString(),
		Message:   event.Message(),
		CreatedAt: s.now(),
		Visible:   true,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("appending log entry: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("claim logged", "page_id", event.PageID, "entry_id", entry.ID)
	}
	return entry, nil
}

// Recent returns visible entries, newest first. limit <= 0 uses the
// service default.
func (s *Service) Recent(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	entries, err := s.repo.List(ctx, ListOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing log entries: %w", err)
	}
	if entries == nil {
		entries = []LogEntry{}
	}
	return entries, nil
}
