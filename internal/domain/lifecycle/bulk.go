package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/dafmemorial/internal/domain/catalog"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrPageNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrInvalidTransition):
		return outcomeRejected
	default:
		return outcomeError
	}
}

// ClaimFailure describes a page a bulk claim could not take.
// Page holds the page's state as read after the failure, when available.
type ClaimFailure struct {
	PageID string
	Err    error
	Page   *catalog.Page
}

// BulkResult is the per-page outcome of a bulk claim.
type BulkResult struct {
	Claimed []catalog.Page
	Failed  []ClaimFailure
}

// BulkClaim claims each page independently. A page that fails does not
// affect the others; duplicate IDs are claimed once.
func (s *Service) BulkClaim(ctx context.Context, actor Actor, pageIDs []string) (*BulkResult, error) {
	if len(pageIDs) == 0 {
		return nil, fmt.Errorf("%w: no pages to claim", ErrInvalidInput)
	}
	if len(pageIDs) > s.maxBulk {
		return nil, fmt.Errorf("%w: %d pages exceeds the limit of %d", ErrInvalidInput, len(pageIDs), s.maxBulk)
	}
	if err := validateRequest(actor, "bulk"); err != nil {
		return nil, err
	}
	s.recorder.ObserveBulkClaim(len(pageIDs))

	result := &BulkResult{Claimed: []catalog.Page{}, Failed: []ClaimFailure{}}
	seen := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := s.Claim(ctx, actor, id)
		if err != nil {
			failure := ClaimFailure{PageID: id, Err: err}
			if !errors.Is(err, ErrPageNotFound) && !errors.Is(err, ErrInvalidInput) {
				if latest, getErr := s.pages.Get(ctx, id); getErr == nil {
					failure.Page = latest
				}
			}
			result.Failed = append(result.Failed, failure)
			continue
		}
		result.Claimed = append(result.Claimed, *page)
	}

	if s.logger != nil {
		s.logger.Info("bulk claim", "user_id", actor.ID, "requested", len(pageIDs), "claimed", len(result.Claimed), "failed", len(result.Failed))
	}
	return result, nil
}
