package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/repository"
)

// Operation names used in logs and metrics.
const (
	OpClaim    = "claim"
	OpReturn   = "return"
	OpComplete = "complete"
	OpDraft    = "draft"
)

// DefaultMaxBulk caps the number of pages in one bulk claim.
const DefaultMaxBulk = 100

// Actor is the signed-in user performing a transition.
type Actor struct {
	ID   string
	Name string
}

// Service is the page lifecycle engine. Every transition is checked against
// the loaded row and then enforced by the store's guarded update, so two
// racing requests can never both succeed.
type Service struct {
	pages    PageStore
	emitter  ClaimEmitter
	recorder Recorder
	logger   *slog.Logger
	drafting bool
	maxBulk  int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDrafting enables the Drafted pre-claim state.
func WithDrafting(enabled bool) Option {
	return func(s *Service) { s.drafting = enabled }
}

// WithMaxBulk sets the bulk claim size limit.
func WithMaxBulk(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBulk = n
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new lifecycle service. emitter may be nil, in which
// case claims are not logged.
func NewService(pages PageStore, emitter ClaimEmitter, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		pages:    pages,
		emitter:  emitter,
		recorder: nopRecorder{},
		logger:   logger,
		maxBulk:  DefaultMaxBulk,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DraftingEnabled reports whether the Drafted state is in use.
func (s *Service) DraftingEnabled() bool {
	return s.drafting
}

// Claim moves an Available page to Taken for actor. In drafting mode a page
// Drafted by actor may be claimed as well.
func (s *Service) Claim(ctx context.Context, actor Actor, pageID string) (*catalog.Page, error) {
	if err := validateRequest(actor, pageID); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, pageID)
	if err != nil {
		s.recorder.ObserveTransition(OpClaim, outcomeFor(err))
		return nil, err
	}

	var guard Guard
	switch {
	case current.Status == catalog.StatusAvailable:
		guard = Guard{Status: catalog.StatusAvailable}
	case s.drafting && current.Status == catalog.StatusDrafted && current.ClaimedByUser(actor.ID):
		guard = Guard{Status: catalog.StatusDrafted, ClaimedBy: &actor.ID}
	default:
		s.recorder.ObserveTransition(OpClaim, outcomeRejected)
		return nil, rejected(current)
	}

	now := s.now()
	change := Change{
		Status:        catalog.StatusTaken,
		ClaimedBy:     ptr(actor.ID),
		ClaimedByName: ptr(actor.Name),
		ClaimedAt:     &now,
	}
	if err := s.apply(ctx, OpClaim, pageID, guard, change); err != nil {
		return nil, err
	}

	updated := withChange(*current, change)
	if claimantChanged(current, &updated) {
		s.emitClaim(ctx, &updated)
	}
	return &updated, nil
}

// Return releases a page Taken by actor back to Available. In drafting mode
// it also releases actor's draft.
func (s *Service) Return(ctx context.Context, actor Actor, pageID string) (*catalog.Page, error) {
	if err := validateRequest(actor, pageID); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, pageID)
	if err != nil {
		s.recorder.ObserveTransition(OpReturn, outcomeFor(err))
		return nil, err
	}

	heldStatus := current.Status == catalog.StatusTaken ||
		(s.drafting && current.Status == catalog.StatusDrafted)
	if !heldStatus || !current.ClaimedByUser(actor.ID) {
		s.recorder.ObserveTransition(OpReturn, outcomeRejected)
		return nil, rejected(current)
	}

	guard := Guard{Status: current.Status, ClaimedBy: &actor.ID}
	change := Change{Status: catalog.StatusAvailable}
	if err := s.apply(ctx, OpReturn, pageID, guard, change); err != nil {
		return nil, err
	}

	updated := withChange(*current, change)
	return &updated, nil
}

// Complete marks a page Taken by actor as Completed. The claimant and claim
// time are kept for attribution. Completed is terminal.
func (s *Service) Complete(ctx context.Context, actor Actor, pageID string) (*catalog.Page, error) {
	if err := validateRequest(actor, pageID); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, pageID)
	if err != nil {
		s.recorder.ObserveTransition(OpComplete, outcomeFor(err))
		return nil, err
	}

	if current.Status != catalog.StatusTaken || !current.ClaimedByUser(actor.ID) {
		s.recorder.ObserveTransition(OpComplete, outcomeRejected)
		return nil, rejected(current)
	}

	guard := Guard{Status: catalog.StatusTaken, ClaimedBy: &actor.ID}
	change := Change{
		Status:        catalog.StatusCompleted,
		ClaimedBy:     current.ClaimedBy,
		ClaimedByName: current.ClaimedByName,
		ClaimedAt:     current.ClaimedAt,
	}
	if err := s.apply(ctx, OpComplete, pageID, guard, change); err != nil {
		return nil, err
	}

	updated := withChange(*current, change)
	return &updated, nil
}

// Draft holds an Available page for actor without claiming it. Only
// available in drafting mode; drafts are not logged.
func (s *Service) Draft(ctx context.Context, actor Actor, pageID string) (*catalog.Page, error) {
	if !s.drafting {
		return nil, ErrDraftingDisabled
	}
	if err := validateRequest(actor, pageID); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, pageID)
	if err != nil {
		s.recorder.ObserveTransition(OpDraft, outcomeFor(err))
		return nil, err
	}
	if current.Status != catalog.StatusAvailable {
		s.recorder.ObserveTransition(OpDraft, outcomeRejected)
		return nil, rejected(current)
	}

	guard := Guard{Status: catalog.StatusAvailable}
	change := Change{
		Status:        catalog.StatusDrafted,
		ClaimedBy:     ptr(actor.ID),
		ClaimedByName: ptr(actor.Name),
	}
	if err := s.apply(ctx, OpDraft, pageID, guard, change); err != nil {
		return nil, err
	}

	updated := withChange(*current, change)
	return &updated, nil
}

func (s *Service) load(ctx context.Context, pageID string) (*catalog.Page, error) {
	page, err := s.pages.Get(ctx, pageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("loading page: %w", err)
	}
	return page, nil
}

func (s *Service) apply(ctx context.Context, op, pageID string, guard Guard, change Change) error {
	err := s.pages.UpdateStatus(ctx, pageID, guard, change)
	switch {
	case err == nil:
		s.recorder.ObserveTransition(op, outcomeOK)
		if s.logger != nil {
			s.logger.Debug("page transition", "op", op, "page_id", pageID, "from", guard.Status, "to", change.Status)
		}
		return nil
	case errors.Is(err, repository.ErrConflict):
		s.recorder.ObserveTransition(op, outcomeRejected)
		return fmt.Errorf("%w: page %s changed concurrently", ErrInvalidTransition, pageID)
	case errors.Is(err, repository.ErrNotFound):
		s.recorder.ObserveTransition(op, outcomeNotFound)
		return ErrPageNotFound
	default:
		s.recorder.ObserveTransition(op, outcomeError)
		return fmt.Errorf("applying %s: %w", op, err)
	}
}

// emitClaim is best effort: the claim has already been committed.
func (s *Service) emitClaim(ctx context.Context, page *catalog.Page) {
	if s.emitter == nil {
		return
	}
	event := activity.ClaimEvent{
		PageID:       page.ID,
		UserName:     stringValue(page.ClaimedByName),
		PageLabel:    page.Label,
		TractateName: page.TractateName,
	}
	if _, err := s.emitter.EmitClaim(ctx, event); err != nil {
		s.recorder.ObserveEmission(outcomeError)
		if s.logger != nil {
			s.logger.Warn("failed to log claim", "page_id", page.ID, "error", err)
		}
		return
	}
	s.recorder.ObserveEmission(outcomeOK)
}

// claimantChanged compares the committed claimant before and after a
// transition. A draft is provisional, so claiming one's own draft counts as
// a new claimant.
func claimantChanged(before, after *catalog.Page) bool {
	prev := before.ClaimedBy
	if before.Status == catalog.StatusDrafted {
		prev = nil
	}
	next := after.ClaimedBy
	if prev == nil || next == nil {
		return prev != next
	}
	return *prev != *next
}

func withChange(p catalog.Page, c Change) catalog.Page {
	p.Status = c.Status
	p.ClaimedBy = c.ClaimedBy
	p.ClaimedByName = c.ClaimedByName
	p.ClaimedAt = c.ClaimedAt
	return p
}

func rejected(p *catalog.Page) error {
	return fmt.Errorf("%w: page %s is %s", ErrInvalidTransition, p.ID, p.Status)
}

func validateRequest(actor Actor, pageID string) error {
	if strings.TrimSpace(actor.ID) == "" {
		return fmt.Errorf("%w: missing actor", ErrInvalidInput)
	}
	if strings.TrimSpace(pageID) == "" {
		return fmt.Errorf("%w: missing page id", ErrInvalidInput)
	}
	return nil
}

func ptr(s string) *string {
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
