// Package tracker hands out priority-ordered batches of expansion work
// and folds batch outcomes back into the per-solution progress state
// machine: pending -> in_progress -> {completed | exhausted | pending}.
package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// Config carries the tracker targets. Values are configuration, not
// invariants.
type Config struct {
	ConnectionTarget int           // completed once connection_count exceeds this
	QualityCeiling   float64       // exhausted once rejection_rate exceeds this
	CoverageTarget   float64       // stop once this fraction of solutions has connections
	QualityWindow    int           // trailing batches considered by ShouldContinue
	ClaimLease       time.Duration // in_progress older than this is claimable again
	FailureGrace     int           // errored attempts a unit survives before exhaustion applies
}

// Tracker owns the claim/release protocol for one worker. The claim
// itself is delegated to the store's atomic conditional update; the
// tracker decides tiers, state transitions, and stopping.
type Tracker struct {
	repo    ports.ProgressRepository
	ownerID uuid.UUID
	cfg     Config

	recentRejections []float64
}

// New builds a tracker with a fresh claim-owner identity.
func New(repo ports.ProgressRepository, cfg Config) *Tracker {
	if cfg.ConnectionTarget <= 0 {
		cfg.ConnectionTarget = 2
	}
	if cfg.QualityCeiling <= 0 {
		cfg.QualityCeiling = 0.80
	}
	if cfg.CoverageTarget <= 0 {
		cfg.CoverageTarget = 0.95
	}
	if cfg.QualityWindow <= 0 {
		cfg.QualityWindow = 3
	}
	if cfg.FailureGrace <= 0 {
		cfg.FailureGrace = 3
	}
	return &Tracker{repo: repo, ownerID: uuid.New(), cfg: cfg}
}

// OwnerID identifies this worker's claims.
func (t *Tracker) OwnerID() uuid.UUID {
	return t.ownerID
}

var tierOrder = []string{models.TierZero, models.TierSingle, models.TierDouble}

// ClaimBatch atomically claims up to size pending units in the given
// tier. Tier "auto" escalates to the next tier only when the current
// one yields nothing.
func (t *Tracker) ClaimBatch(ctx context.Context, category, tier string, size int) ([]models.ExpansionProgress, error) {
	tiers := []string{tier}
	if tier == models.TierAuto || tier == "" {
		tiers = tierOrder
	}

	var staleBefore time.Time
	if t.cfg.ClaimLease > 0 {
		staleBefore = time.Now().UTC().Add(-t.cfg.ClaimLease)
	}

	for _, tr := range tiers {
		units, err := t.repo.ClaimBatch(ctx, ports.ProgressFilter{
			Category:    category,
			Tier:        tr,
			StaleBefore: staleBefore,
		}, size, t.ownerID)
		if err != nil {
			return nil, errors.Wrap(err, "claiming progress batch")
		}
		if len(units) > 0 {
			log.Printf("[Tracker] claimed %d units in %s (tier %s)", len(units), category, tr)
			return units, nil
		}
	}
	return nil, nil
}

// ReleaseResult applies one unit's batch outcome and moves it to its
// next state. Per-unit errors send the unit back to pending with a
// note; repeated failure migrates it toward exhausted through the
// rejection rate.
func (t *Tracker) ReleaseResult(ctx context.Context, unit models.ExpansionProgress, outcome models.BatchOutcome) error {
	update := ports.ProgressUpdate{
		ConnectionCount:  unit.ConnectionCount + outcome.SuccessfulConnections,
		AttemptsCount:    unit.AttemptsCount + 1,
		RejectionRate:    outcome.RejectionRate(),
		AvgEffectiveness: outcome.AvgEffectiveness,
	}

	switch {
	case outcome.Err != nil && errors.IsCode(outcome.Err, errors.CodeQuotaExhausted):
		// A quota stop says nothing about the unit itself: keep its
		// stored rate so the next run sees it unchanged.
		update.Status = models.StatusPending
		update.LastError = outcome.Err.Error()
		update.RejectionRate = unit.RejectionRate
		log.Printf("[Tracker] unit %s (%q) back to pending, generation quota exhausted", unit.ID, unit.SolutionTitle)
	case outcome.Err != nil:
		// An errored batch produced nothing usable: fold it into the
		// stored rate as fully rejected, so a unit that keeps failing
		// migrates to exhausted instead of cycling through pending.
		update.LastError = outcome.Err.Error()
		update.RejectionRate = foldRejection(unit.RejectionRate, unit.AttemptsCount, 1.0)
		if update.AttemptsCount >= t.cfg.FailureGrace && update.RejectionRate > t.cfg.QualityCeiling {
			update.Status = models.StatusExhausted
			log.Printf("[Tracker] unit %s (%q) exhausted after repeated failures (attempt %d)", unit.ID, unit.SolutionTitle, update.AttemptsCount)
		} else {
			update.Status = models.StatusPending
			log.Printf("[Tracker] unit %s (%q) back to pending after error: %v", unit.ID, unit.SolutionTitle, outcome.Err)
		}
	case update.ConnectionCount > t.cfg.ConnectionTarget:
		update.Status = models.StatusCompleted
	case update.RejectionRate > t.cfg.QualityCeiling:
		update.Status = models.StatusExhausted
		log.Printf("[Tracker] unit %s (%q) exhausted at %.0f%% rejection", unit.ID, unit.SolutionTitle, update.RejectionRate*100)
	default:
		update.Status = models.StatusPending
	}

	t.recentRejections = append(t.recentRejections, update.RejectionRate)

	if err := t.repo.UpdateProgress(ctx, unit.ID, update); err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return nil
}

// ReleaseUnprocessed returns a claimed unit to pending with its
// counters untouched, for units a run claimed but never reached.
func (t *Tracker) ReleaseUnprocessed(ctx context.Context, unit models.ExpansionProgress) error {
	update := ports.ProgressUpdate{
		ConnectionCount:  unit.ConnectionCount,
		AttemptsCount:    unit.AttemptsCount,
		RejectionRate:    unit.RejectionRate,
		AvgEffectiveness: unit.AvgEffectiveness,
		Status:           models.StatusPending,
		LastError:        unit.LastError,
	}
	if err := t.repo.UpdateProgress(ctx, unit.ID, update); err != nil {
		return errors.Wrap(err, "releasing unprocessed unit")
	}
	return nil
}

// foldRejection blends one batch's rate into the attempt-weighted
// stored rate.
func foldRejection(prior float64, attempts int, batch float64) float64 {
	return (prior*float64(attempts) + batch) / float64(attempts+1)
}

// ShouldContinue decides whether another batch is worth claiming.
// False once the category coverage target is reached, the trailing
// rejection window breaches the quality ceiling, or no pending work
// remains. The reason is human-readable either way.
func (t *Tracker) ShouldContinue(ctx context.Context, category string) (bool, string, error) {
	stats, err := t.repo.CategoryStats(ctx, category)
	if err != nil {
		return false, "", errors.Wrap(err, "reading category stats")
	}

	if stats.Total > 0 {
		coverage := float64(stats.WithConnections) / float64(stats.Total)
		if coverage >= t.cfg.CoverageTarget {
			return false, fmt.Sprintf("coverage target met (%.0f%% of %d solutions connected)", coverage*100, stats.Total), nil
		}
	}

	if n := len(t.recentRejections); n >= t.cfg.QualityWindow {
		window := t.recentRejections[n-t.cfg.QualityWindow:]
		if mean := stat.Mean(window, nil); mean > t.cfg.QualityCeiling {
			return false, fmt.Sprintf("quality threshold breached (%.0f%% rejection over last %d batches)", mean*100, t.cfg.QualityWindow), nil
		}
	}

	if stats.Pending == 0 {
		return false, "no pending work remaining", nil
	}

	return true, fmt.Sprintf("%d of %d solutions connected, %d pending", stats.WithConnections, stats.Total, stats.Pending), nil
}
