package resolve

import (
	"context"
	"testing"

	"github.com/jandy1990/wwfm-platform-sub002/internal/testkit"
)

func TestRewriteTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"specific prefix untouched", "Sertraline (Zoloft)", "Sertraline (Zoloft)"},
		{"generic prefix replaced by parenthetical", "Yoga practice (Hatha yoga)", "Hatha yoga"},
		{"generic prefix with alias list", "Prescription antidepressants (Sertraline/Zoloft)", "Sertraline (Zoloft)"},
		{"duplicate aliases collapse", "Daily supplement (Vitamin D, vitamin d)", "Vitamin D"},
		{"no parenthetical passes through", "Magnesium glycinate", "Magnesium glycinate"},
		{"whitespace collapsed", "  Magnesium   glycinate ", "Magnesium glycinate"},
		{"mid-title parenthetical untouched", "CBT (weekly) sessions", "CBT (weekly) sessions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteTitle(tt.raw); got != tt.want {
				t.Errorf("RewriteTitle(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestOverlapScore(t *testing.T) {
	a := Tokenize("Sertraline (Zoloft)")
	b := Tokenize("Zoloft")

	if got := OverlapScore(a, b); got != 1.0 {
		t.Errorf("brand/generic pair scored %.2f, want 1.0", got)
	}
	if got := OverlapScore(a, Tokenize("Escitalopram")); got != 0.0 {
		t.Errorf("disjoint titles scored %.2f, want 0.0", got)
	}
	if OverlapScore(a, b) != OverlapScore(b, a) {
		t.Error("OverlapScore is not symmetric")
	}
	if got := OverlapScore(nil, b); got != 0.0 {
		t.Errorf("empty set scored %.2f, want 0.0", got)
	}
}

func TestSignature_GenericWrappersShareSignature(t *testing.T) {
	if Signature("Yoga practice") != Signature("Yoga") {
		t.Error("generic wrapper should not change the signature")
	}
	if Signature("Zoloft") != Signature("Sertraline") {
		t.Error("brand and generic should share a signature")
	}
	if Signature("Sertraline") == Signature("Escitalopram") {
		t.Error("different entities must not share a signature")
	}
}

// Resolving the same entity under different phrasings must always land
// on one solution id, regardless of which phrasing arrives first.
func TestResolver_BrandGenericPairsMerge(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewSolutionRepository()
	r := NewResolver(repo, NewTitleCache(), 0)

	first, err := r.Resolve(ctx, "medications", "Sertraline (Zoloft)", nil)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if !first.IsNew {
		t.Error("first resolve should create the solution")
	}

	second, err := r.Resolve(ctx, "medications", "Prescription antidepressants (Sertraline/Zoloft)", nil)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if second.IsNew {
		t.Error("second phrasing must not create a duplicate")
	}
	if second.SolutionID != first.SolutionID {
		t.Errorf("phrasings resolved to different solutions: %s vs %s", first.SolutionID, second.SolutionID)
	}

	third, err := r.Resolve(ctx, "medications", "Escitalopram (Lexapro)", nil)
	if err != nil {
		t.Fatalf("third resolve failed: %v", err)
	}
	if !third.IsNew || third.SolutionID == first.SolutionID {
		t.Error("a different entity must get its own solution")
	}
}

func TestResolver_ExactTitleHitsStore(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewSolutionRepository()
	seeded := repo.Seed("Hatha yoga", "exercise_movement")
	r := NewResolver(repo, NewTitleCache(), 0)

	res, err := r.Resolve(ctx, "exercise_movement", "Yoga practice (Hatha yoga)", nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.IsNew {
		t.Error("seeded solution must not be recreated")
	}
	if res.SolutionID != seeded {
		t.Errorf("resolved to %s, want seeded %s", res.SolutionID, seeded)
	}
	if res.CanonicalTitle != "Hatha yoga" {
		t.Errorf("canonical title %q, want stored title", res.CanonicalTitle)
	}
}

func TestResolver_FuzzyMatchAboveThreshold(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewSolutionRepository()
	seeded := repo.Seed("Headspace meditation app", "apps_software")
	r := NewResolver(repo, NewTitleCache(), 0.75)

	res, err := r.Resolve(ctx, "apps_software", "Headspace app", nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.IsNew || res.SolutionID != seeded {
		t.Errorf("expected fuzzy match onto seeded solution, got new=%v id=%s", res.IsNew, res.SolutionID)
	}
}

func TestResolver_BelowThresholdCreatesNew(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewSolutionRepository()
	repo.Seed("Headspace meditation app", "apps_software")
	r := NewResolver(repo, NewTitleCache(), 0.75)

	res, err := r.Resolve(ctx, "apps_software", "Calm sleep stories", nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !res.IsNew {
		t.Error("unrelated title must create a new solution")
	}
}
