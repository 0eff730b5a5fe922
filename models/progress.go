package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Expansion progress statuses. Transitions:
// pending -> in_progress -> {completed | exhausted | pending}.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusExhausted  = "exhausted"
)

// Priority tiers for claiming work. Lower connection counts are served
// first; "auto" escalates a tier only when the current one is empty.
const (
	TierZero   = "zero"
	TierSingle = "single"
	TierDouble = "double"
	TierAuto   = "auto"
)

// ExpansionProgress tracks how far one (solution, category) pair has
// been expanded. Created lazily when the solution enters the expansion
// universe; updated after every batch; never deleted.
type ExpansionProgress struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	SolutionID       uuid.UUID  `db:"solution_id" json:"solution_id"`
	SolutionTitle    string     `db:"solution_title" json:"solution_title"`
	Category         string     `db:"category" json:"category"`
	ConnectionCount  int        `db:"connection_count" json:"connection_count"`
	AttemptsCount    int        `db:"attempts_count" json:"attempts_count"`
	RejectionRate    float64    `db:"rejection_rate" json:"rejection_rate"`
	AvgEffectiveness float64    `db:"avg_effectiveness" json:"avg_effectiveness"`
	Status           string     `db:"status" json:"status"`
	ClaimedBy        *uuid.UUID `db:"claimed_by" json:"claimed_by,omitempty"`
	ClaimedAt        *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
	LastError        string     `db:"last_error" json:"last_error,omitempty"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Tier returns the priority tier this unit currently belongs to, or ""
// when it is past the tiered range.
func (p *ExpansionProgress) Tier() string {
	switch p.ConnectionCount {
	case 0:
		return TierZero
	case 1:
		return TierSingle
	case 2:
		return TierDouble
	default:
		return ""
	}
}

// BatchOutcome is what one processed unit reports back to the tracker.
type BatchOutcome struct {
	SuccessfulConnections int
	AttemptedConnections  int
	AvgEffectiveness      float64
	Err                   error
}

// RejectionRate computes the fraction of attempted connections that
// did not survive the gates. Zero attempts count as zero rejection.
func (o BatchOutcome) RejectionRate() float64 {
	if o.AttemptedConnections == 0 {
		return 0
	}
	rejected := o.AttemptedConnections - o.SuccessfulConnections
	return float64(rejected) / float64(o.AttemptedConnections)
}

// RunSummary aggregates one run's user-visible results.
type RunSummary struct {
	Category       string
	UnitsProcessed int
	Created        int
	Updated        int
	Skipped        int
	Rejected       map[string]int // stage -> count
	StopReason     string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewRunSummary initializes a summary for one category run.
func NewRunSummary(category string) *RunSummary {
	return &RunSummary{
		Category:  category,
		Rejected:  map[string]int{},
		StartedAt: time.Now().UTC(),
	}
}

// TotalRejected sums rejections across all stages.
func (s *RunSummary) TotalRejected() int {
	total := 0
	for _, n := range s.Rejected {
		total += n
	}
	return total
}

func errPercentageSum(sum float64) error {
	return fmt.Errorf("distribution percentages sum to %.2f, want 100 +/- 1", sum)
}

func errTooFewValues(got, want int) error {
	return fmt.Errorf("distribution has %d distinct values, want at least %d", got, want)
}
