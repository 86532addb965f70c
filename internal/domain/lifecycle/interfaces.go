package lifecycle

import (
	"context"
	"time"

	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
)

// Guard is the state a page row must hold for a conditional update to apply.
// A nil ClaimedBy requires the row to have no claimant.
type Guard struct {
	Status    catalog.PageStatus
	ClaimedBy *string
}

// Change is the lifecycle state written when the guard holds.
type Change struct {
	Status        catalog.PageStatus
	ClaimedBy     *string
	ClaimedByName *string
	ClaimedAt     *time.Time
}

// PageStore loads pages and applies guarded status updates atomically.
// UpdateStatus returns repository.ErrConflict when the row exists but does
// not match the guard.
type PageStore interface {
	Get(ctx context.Context, id string) (*catalog.Page, error)
	UpdateStatus(ctx context.Context, id string, guard Guard, change Change) error
}

// ClaimEmitter records a successful claim in the activity log.
type ClaimEmitter interface {
	EmitClaim(ctx context.Context, event activity.ClaimEvent) (*activity.LogEntry, error)
}

// Recorder receives transition outcomes for metrics.
type Recorder interface {
	ObserveTransition(op, outcome string)
	ObserveEmission(outcome string)
	ObserveBulkClaim(size int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTransition(string, string) {}
func (nopRecorder) ObserveEmission(string)           {}
func (nopRecorder) ObserveBulkClaim(int)             {}
