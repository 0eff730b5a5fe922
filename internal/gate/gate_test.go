package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/jandy1990/wwfm-platform-sub002/internal/testkit"
	"github.com/jandy1990/wwfm-platform-sub002/models"
)

func pairing(category, title, description string, effectiveness float64, goalTitle string) Pairing {
	return Pairing{
		Candidate: models.SolutionCandidate{
			Title:         title,
			Description:   description,
			Category:      category,
			Effectiveness: effectiveness,
		},
		Goal: models.Goal{Title: goalTitle, Category: category},
	}
}

func TestEvaluateBatch_ForbiddenPatternRejectsBeforeScoring(t *testing.T) {
	scorer := testkit.PassingScorer(95)
	g := New(scorer, Options{})

	results, err := g.EvaluateBatch(context.Background(), []Pairing{
		pairing("medications", "Sertraline", "SSRI for mood", 4.2, "Save more money each month"),
	})
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}

	r := results[0]
	if !r.Rejected() {
		t.Fatal("forbidden goal must be rejected")
	}
	if r.RejectedAtStage != StageRules {
		t.Errorf("rejected at %s, want %s", r.RejectedAtStage, StageRules)
	}
	if scorer.Calls != 0 {
		t.Errorf("scorer called %d times for a locally rejected pairing", scorer.Calls)
	}
}

func TestEvaluateBatch_EffectivenessFloor(t *testing.T) {
	g := New(testkit.PassingScorer(95), Options{})

	results, err := g.EvaluateBatch(context.Background(), []Pairing{
		pairing("medications", "Sertraline", "SSRI for mood", 3.1, "Manage anxiety better"),
	})
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	if r := results[0]; !r.Rejected() || r.RejectedAtStage != StageRules {
		t.Errorf("expected rejection at %s, got stage %q rejected=%v", StageRules, r.RejectedAtStage, r.Rejected())
	}
}

func TestEvaluateBatch_ContradictoryDomains(t *testing.T) {
	g := New(testkit.PassingScorer(95), Options{})

	results, err := g.EvaluateBatch(context.Background(), []Pairing{
		pairing("supplements", "Melatonin sleep supplement", "sedative sleep aid for insomnia and drowsiness", 4.0, "Boost energy and feel more alert"),
	})
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	if r := results[0]; !r.Rejected() || r.RejectedAtStage != StageSemantic {
		t.Errorf("expected rejection at %s, got stage %q rejected=%v", StageSemantic, r.RejectedAtStage, r.Rejected())
	}
}

func TestEvaluateBatch_StrictDomainCheck(t *testing.T) {
	strict := New(testkit.PassingScorer(95), Options{StrictDomainCheck: true})
	relaxed := New(testkit.PassingScorer(95), Options{})

	// Supplements goal outside the category's domain keywords.
	p := pairing("supplements", "Magnesium glycinate", "mineral supplement", 4.0, "Become a better public speaker")

	results, err := strict.EvaluateBatch(context.Background(), []Pairing{p})
	if err != nil {
		t.Fatalf("strict evaluate failed: %v", err)
	}
	if r := results[0]; !r.Rejected() || r.RejectedAtStage != StageDomain {
		t.Errorf("strict mode: expected rejection at %s, got stage %q", StageDomain, r.RejectedAtStage)
	}

	results, err = relaxed.EvaluateBatch(context.Background(), []Pairing{p})
	if err != nil {
		t.Fatalf("relaxed evaluate failed: %v", err)
	}
	if r := results[0]; r.RejectedAtStage == StageDomain {
		t.Error("relaxed mode must not hard-reject on the domain stage")
	}
}

func TestEvaluateBatch_LaughTestRejectsBelowThreshold(t *testing.T) {
	g := New(testkit.PassingScorer(40), Options{LaughTestThreshold: 70})

	results, err := g.EvaluateBatch(context.Background(), []Pairing{
		pairing("medications", "Sertraline", "SSRI for anxiety and mood", 4.2, "Manage anxiety better"),
	})
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}

	r := results[0]
	if !r.Rejected() || r.RejectedAtStage != StageLaugh {
		t.Errorf("expected rejection at %s, got stage %q rejected=%v", StageLaugh, r.RejectedAtStage, r.Rejected())
	}
	if r.LaughTest == nil {
		t.Error("laugh test score should be recorded on the result")
	}
}

func TestEvaluateBatch_ScorerFailureFailsOpen(t *testing.T) {
	scorer := &testkit.StaticScorer{Err: errors.New("service unavailable")}
	g := New(scorer, Options{})

	results, err := g.EvaluateBatch(context.Background(), []Pairing{
		pairing("medications", "Sertraline", "SSRI for anxiety and mood", 4.2, "Manage anxiety better"),
		pairing("medications", "Sertraline", "SSRI for anxiety and mood", 4.2, "Save more money each month"),
	})
	if err != nil {
		t.Fatalf("scorer failure must not surface as a batch error: %v", err)
	}

	if r := results[0]; r.Rejected() || !r.ServiceError {
		t.Errorf("survivor should pass fail-open with ServiceError set, got rejected=%v serviceError=%v", r.Rejected(), r.ServiceError)
	}
	// Local rejections still stand even when the scorer is down.
	if r := results[1]; !r.Rejected() || r.ServiceError {
		t.Errorf("local rejection must stand, got rejected=%v serviceError=%v", r.Rejected(), r.ServiceError)
	}
}

func TestEvaluateBatch_ResultsArePositional(t *testing.T) {
	g := New(testkit.PassingScorer(90), Options{})

	pairings := []Pairing{
		pairing("medications", "Sertraline", "SSRI for anxiety", 4.2, "Manage anxiety better"),
		pairing("medications", "Sertraline", "SSRI for anxiety", 4.2, "Grow my social circle"),
		pairing("medications", "Sertraline", "SSRI for anxiety and sleep quality", 4.2, "Sleep through the night"),
	}
	results, err := g.EvaluateBatch(context.Background(), pairings)
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	if len(results) != len(pairings) {
		t.Fatalf("got %d results for %d pairings", len(results), len(pairings))
	}
	if results[0].Rejected() || results[2].Rejected() {
		t.Error("valid pairings around a rejection must still pass")
	}
	if !results[1].Rejected() {
		t.Error("middle pairing should be rejected by the forbid pattern")
	}
}

func TestProjectEffectiveness_Clamped(t *testing.T) {
	g := New(testkit.PassingScorer(90), Options{})

	results, err := g.EvaluateBatch(context.Background(), []Pairing{
		pairing("medications", "Sertraline", "SSRI for anxiety and panic", 3.6, "Manage panic attacks at work"),
	})
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	r := results[0]
	if r.Rejected() {
		t.Fatalf("unexpected rejection: %s", r.RejectionReason)
	}
	if r.ProjectedEffect < 3.5 || r.ProjectedEffect > 5.0 {
		t.Errorf("projected effect %.2f outside [3.5, 5.0]", r.ProjectedEffect)
	}
}

func TestEvaluateBatch_UnknownCategory(t *testing.T) {
	g := New(testkit.PassingScorer(90), Options{})

	results, err := g.EvaluateBatch(context.Background(), []Pairing{
		pairing("underwater_basketweaving", "Anything", "", 4.0, "Any goal"),
	})
	if err != nil {
		t.Fatalf("EvaluateBatch failed: %v", err)
	}
	if r := results[0]; !r.Rejected() || r.RejectedAtStage != StageRules {
		t.Errorf("unknown category should reject at %s, got %q", StageRules, r.RejectedAtStage)
	}
}
