package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/models"
)

// ProgressFilter narrows which pending units a claim may take.
type ProgressFilter struct {
	Category string
	Tier     string // zero | single | double; "" matches any tier

	// StaleBefore additionally makes in_progress units claimable when
	// their claim timestamp predates it, so a crashed worker's units
	// are eventually reclaimed. Zero disables reclaiming.
	StaleBefore time.Time
}

// ProgressUpdate carries the fields releaseResult writes back. Claim
// ownership is always cleared on update.
type ProgressUpdate struct {
	ConnectionCount  int
	AttemptsCount    int
	RejectionRate    float64
	AvgEffectiveness float64
	Status           string
	LastError        string
}

// ProgressStats summarizes one category's expansion state.
type ProgressStats struct {
	Total           int
	WithConnections int
	Pending         int
}

// ProgressRepository owns the crash-resumable expansion bookkeeping.
// ClaimBatch is the one operation that must be concurrency-safe across
// worker processes.
type ProgressRepository interface {
	// ClaimBatch atomically selects up to size claimable units matching
	// the filter, marks them in_progress under ownerID with the current
	// timestamp, and returns them. Two concurrent callers never receive
	// the same unit.
	ClaimBatch(ctx context.Context, filter ProgressFilter, size int, ownerID uuid.UUID) ([]models.ExpansionProgress, error)

	// UpdateProgress applies a release outcome and clears the claim.
	UpdateProgress(ctx context.Context, id uuid.UUID, update ProgressUpdate) error

	// EnsureProgress lazily creates the pending record for a solution
	// entering the expansion universe. Existing records are untouched.
	EnsureProgress(ctx context.Context, solutionID uuid.UUID, title, category string) error

	// CategoryStats returns coverage counters for shouldContinue.
	CategoryStats(ctx context.Context, category string) (ProgressStats, error)
}
