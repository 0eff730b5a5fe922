package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/jandy1990/wwfm-platform-sub002/internal/errors"
	"github.com/jandy1990/wwfm-platform-sub002/internal/testkit"
	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

func portsUpdate(status string, connections int) ports.ProgressUpdate {
	return ports.ProgressUpdate{Status: status, ConnectionCount: connections}
}

func TestClaimBatch_ZeroTierFirst(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	repo.SeedUnit("Magnesium", "supplements", 1)
	zeroID := repo.SeedUnit("Vitamin D", "supplements", 0)

	tr := New(repo, Config{})
	units, err := tr.ClaimBatch(ctx, "supplements", models.TierAuto, 1)
	if err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if len(units) != 1 || units[0].ID != zeroID {
		t.Errorf("auto tier should claim the zero-connection unit first, got %v", units)
	}
}

func TestClaimBatch_AutoEscalatesWhenTierEmpty(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	singleID := repo.SeedUnit("Magnesium", "supplements", 1)

	tr := New(repo, Config{})
	units, err := tr.ClaimBatch(ctx, "supplements", models.TierAuto, 5)
	if err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if len(units) != 1 || units[0].ID != singleID {
		t.Errorf("auto tier should escalate to single-connection units, got %v", units)
	}
}

func TestClaimBatch_ExplicitTierDoesNotEscalate(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	repo.SeedUnit("Magnesium", "supplements", 1)

	tr := New(repo, Config{})
	units, err := tr.ClaimBatch(ctx, "supplements", models.TierZero, 5)
	if err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if len(units) != 0 {
		t.Errorf("explicit zero tier must not claim single-connection units, got %v", units)
	}
}

// Concurrent workers claiming from the same store must never receive
// the same unit.
func TestClaimBatch_ConcurrentClaimsNeverOverlap(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	for i := 0; i < 50; i++ {
		repo.SeedUnit("Solution", "supplements", 0)
	}

	const workers = 5
	claims := make([][]models.ExpansionProgress, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		tr := New(repo, Config{})
		g.Go(func() error {
			var all []models.ExpansionProgress
			for {
				units, err := tr.ClaimBatch(gctx, "supplements", models.TierAuto, 3)
				if err != nil {
					return err
				}
				if len(units) == 0 {
					claims[w] = all
					return nil
				}
				all = append(all, units...)
			}
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent claims failed: %v", err)
	}

	seen := map[uuid.UUID]int{}
	total := 0
	for w, units := range claims {
		for _, u := range units {
			if prev, dup := seen[u.ID]; dup {
				t.Errorf("unit %s claimed by both worker %d and worker %d", u.ID, prev, w)
			}
			seen[u.ID] = w
			total++
		}
	}
	if total != 50 {
		t.Errorf("claimed %d units total, want 50", total)
	}
}

func TestClaimBatch_StaleClaimsAreReclaimed(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	id := repo.SeedUnit("Vitamin D", "supplements", 0)

	first := New(repo, Config{ClaimLease: time.Nanosecond})
	if units, err := first.ClaimBatch(ctx, "supplements", models.TierAuto, 1); err != nil || len(units) != 1 {
		t.Fatalf("initial claim failed: units=%d err=%v", len(units), err)
	}

	// The first worker never releases; its lease expires almost
	// immediately.
	time.Sleep(5 * time.Millisecond)

	second := New(repo, Config{ClaimLease: time.Nanosecond})
	units, err := second.ClaimBatch(ctx, "supplements", models.TierAuto, 1)
	if err != nil {
		t.Fatalf("reclaim failed: %v", err)
	}
	if len(units) != 1 || units[0].ID != id {
		t.Errorf("expected the stale unit to be reclaimed, got %v", units)
	}
	if units[0].ClaimedBy == nil || *units[0].ClaimedBy != second.OwnerID() {
		t.Error("reclaimed unit should carry the new owner")
	}
}

func TestReleaseResult_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		seedConns  int
		outcome    models.BatchOutcome
		wantStatus string
		wantError  bool
	}{
		{
			name:       "target exceeded completes",
			seedConns:  2,
			outcome:    models.BatchOutcome{SuccessfulConnections: 15, AttemptedConnections: 20},
			wantStatus: models.StatusCompleted,
		},
		{
			name:       "high rejection exhausts",
			seedConns:  0,
			outcome:    models.BatchOutcome{SuccessfulConnections: 1, AttemptedConnections: 20},
			wantStatus: models.StatusExhausted,
		},
		{
			name:       "partial progress stays pending",
			seedConns:  0,
			outcome:    models.BatchOutcome{SuccessfulConnections: 1, AttemptedConnections: 2},
			wantStatus: models.StatusPending,
		},
		{
			name:       "unit error returns to pending with note",
			seedConns:  0,
			outcome:    models.BatchOutcome{Err: errors.New("generation failed")},
			wantStatus: models.StatusPending,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := testkit.NewProgressRepository()
			id := repo.SeedUnit("Vitamin D", "supplements", tt.seedConns)

			tr := New(repo, Config{ConnectionTarget: 2, QualityCeiling: 0.80})
			claimed, err := tr.ClaimBatch(ctx, "supplements", models.TierAuto, 1)
			if err != nil || len(claimed) != 1 {
				t.Fatalf("claim failed: units=%d err=%v", len(claimed), err)
			}

			if err := tr.ReleaseResult(ctx, claimed[0], tt.outcome); err != nil {
				t.Fatalf("ReleaseResult failed: %v", err)
			}

			unit, ok := repo.Unit(id)
			if !ok {
				t.Fatal("unit disappeared")
			}
			if unit.Status != tt.wantStatus {
				t.Errorf("status %q, want %q", unit.Status, tt.wantStatus)
			}
			if unit.AttemptsCount != 1 {
				t.Errorf("attempts %d, want 1", unit.AttemptsCount)
			}
			if tt.wantError && unit.LastError == "" {
				t.Error("expected the unit error to be recorded")
			}
			if unit.ClaimedBy != nil || unit.ClaimedAt != nil {
				t.Error("release must clear the claim")
			}
		})
	}
}

func TestShouldContinue_CoverageTargetStopsEvenWithPending(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	for i := 0; i < 19; i++ {
		repo.SeedUnit("Connected", "supplements", 2)
	}
	repo.SeedUnit("Pending one", "supplements", 0)

	tr := New(repo, Config{CoverageTarget: 0.95})
	cont, reason, err := tr.ShouldContinue(ctx, "supplements")
	if err != nil {
		t.Fatalf("ShouldContinue failed: %v", err)
	}
	if cont {
		t.Errorf("should stop at 95%% coverage, reason %q", reason)
	}
}

func TestShouldContinue_QualityWindowBreach(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	for i := 0; i < 10; i++ {
		repo.SeedUnit("Solution", "supplements", 0)
	}

	tr := New(repo, Config{QualityCeiling: 0.80, QualityWindow: 3})
	for i := 0; i < 3; i++ {
		claimed, err := tr.ClaimBatch(ctx, "supplements", models.TierAuto, 1)
		if err != nil || len(claimed) != 1 {
			t.Fatalf("claim %d failed: units=%d err=%v", i, len(claimed), err)
		}
		outcome := models.BatchOutcome{SuccessfulConnections: 1, AttemptedConnections: 20}
		if err := tr.ReleaseResult(ctx, claimed[0], outcome); err != nil {
			t.Fatalf("release %d failed: %v", i, err)
		}
	}

	cont, reason, err := tr.ShouldContinue(ctx, "supplements")
	if err != nil {
		t.Fatalf("ShouldContinue failed: %v", err)
	}
	if cont {
		t.Error("three 95%-rejection batches should breach the quality ceiling")
	}
	if reason == "" {
		t.Error("stop must carry a reason")
	}
}

func TestShouldContinue_NoPendingWork(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	// Half connected, so the coverage target is not met, but nothing is
	// pending either.
	id := repo.SeedUnit("Connected", "supplements", 1)
	repo.UpdateProgress(ctx, id, portsUpdate(models.StatusCompleted, 1))
	id2 := repo.SeedUnit("Exhausted", "supplements", 0)
	repo.UpdateProgress(ctx, id2, portsUpdate(models.StatusExhausted, 0))

	tr := New(repo, Config{})
	cont, _, err := tr.ShouldContinue(ctx, "supplements")
	if err != nil {
		t.Fatalf("ShouldContinue failed: %v", err)
	}
	if cont {
		t.Error("should stop when no pending work remains")
	}
}

func TestShouldContinue_ReportsProgress(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	repo.SeedUnit("Connected", "supplements", 1)
	repo.SeedUnit("Pending", "supplements", 0)

	tr := New(repo, Config{})
	cont, reason, err := tr.ShouldContinue(ctx, "supplements")
	if err != nil {
		t.Fatalf("ShouldContinue failed: %v", err)
	}
	if !cont {
		t.Errorf("should continue, got stop with reason %q", reason)
	}
	if reason == "" {
		t.Error("continue must carry a progress line")
	}
}

// A unit whose batches keep failing must not cycle through pending
// forever: once the grace attempts are spent the accumulated rejection
// rate moves it to exhausted.
func TestReleaseResult_RepeatedFailuresExhaust(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	id := repo.SeedUnit("Broken unit", "supplements", 0)

	tr := New(repo, Config{FailureGrace: 3})
	releases := 0
	for i := 0; i < 25; i++ {
		claimed, err := tr.ClaimBatch(ctx, "supplements", models.TierAuto, 1)
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		if len(claimed) == 0 {
			break
		}
		outcome := models.BatchOutcome{Err: errors.New("generation service unavailable")}
		if err := tr.ReleaseResult(ctx, claimed[0], outcome); err != nil {
			t.Fatalf("release %d failed: %v", i, err)
		}
		releases++
	}

	unit, ok := repo.Unit(id)
	if !ok {
		t.Fatal("unit disappeared")
	}
	if unit.Status != models.StatusExhausted {
		t.Errorf("status %q after %d failed releases, want exhausted", unit.Status, releases)
	}
	if releases != 3 {
		t.Errorf("unit stayed claimable for %d releases, want 3 (the grace)", releases)
	}
	if unit.RejectionRate <= 0.80 {
		t.Errorf("rejection rate %.2f, want accumulated above the ceiling", unit.RejectionRate)
	}
}

// Quota exhaustion stops the run for reasons unrelated to the unit,
// so it must not count toward the unit's failure migration.
func TestReleaseResult_QuotaErrorDoesNotExhaust(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	id := repo.SeedUnit("Fine unit", "supplements", 0)

	tr := New(repo, Config{FailureGrace: 3})
	for i := 0; i < 5; i++ {
		claimed, err := tr.ClaimBatch(ctx, "supplements", models.TierAuto, 1)
		if err != nil || len(claimed) != 1 {
			t.Fatalf("claim %d failed: units=%d err=%v", i, len(claimed), err)
		}
		outcome := models.BatchOutcome{Err: apperrors.QuotaExhausted("daily request limit reached")}
		if err := tr.ReleaseResult(ctx, claimed[0], outcome); err != nil {
			t.Fatalf("release %d failed: %v", i, err)
		}
	}

	unit, ok := repo.Unit(id)
	if !ok {
		t.Fatal("unit disappeared")
	}
	if unit.Status != models.StatusPending {
		t.Errorf("status %q, want pending so the next day's run retries it", unit.Status)
	}
	if unit.RejectionRate != 0 {
		t.Errorf("rejection rate %.2f, want 0: quota stops carry no quality signal", unit.RejectionRate)
	}
	if unit.LastError == "" {
		t.Error("the quota error should be recorded on the unit")
	}
}

func TestReleaseUnprocessed_ReturnsUnitUntouched(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewProgressRepository()
	id := repo.SeedUnit("Never reached", "supplements", 1)

	tr := New(repo, Config{})
	claimed, err := tr.ClaimBatch(ctx, "supplements", models.TierAuto, 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("claim failed: units=%d err=%v", len(claimed), err)
	}
	if err := tr.ReleaseUnprocessed(ctx, claimed[0]); err != nil {
		t.Fatalf("ReleaseUnprocessed failed: %v", err)
	}

	unit, ok := repo.Unit(id)
	if !ok {
		t.Fatal("unit disappeared")
	}
	if unit.Status != models.StatusPending {
		t.Errorf("status %q, want pending", unit.Status)
	}
	if unit.AttemptsCount != 0 {
		t.Errorf("attempts %d, want 0: the unit was never processed", unit.AttemptsCount)
	}
	if unit.ConnectionCount != 1 {
		t.Errorf("connection count %d, want 1", unit.ConnectionCount)
	}
	if unit.ClaimedBy != nil || unit.ClaimedAt != nil {
		t.Error("release must clear the claim")
	}

	reclaimed, err := tr.ClaimBatch(ctx, "supplements", models.TierAuto, 1)
	if err != nil || len(reclaimed) != 1 {
		t.Errorf("a released unit must be claimable again, got units=%d err=%v", len(reclaimed), err)
	}
}
