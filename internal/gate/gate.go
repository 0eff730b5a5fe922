// Package gate runs each proposed solution-to-goal association through
// an ordered pipeline of independent plausibility filters. Any stage
// may reject with a reason; stage D transport failures pass fail-open
// and are labeled distinctly from content rejections.
package gate

import (
	"context"
	"fmt"
	"log"

	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// Stage names used in rejection reporting.
const (
	StageRules    = "stage_a_rules"
	StageSemantic = "stage_b_semantic"
	StageDomain   = "stage_c_domain"
	StageLaugh    = "stage_d_laugh_test"
)

// Options tunes the gate. Thresholds are empirical; keep them
// configurable.
type Options struct {
	LaughTestThreshold float64
	StrictDomainCheck  bool
	MinEffectiveness   float64
	MaxEffectiveness   float64
}

// Gate evaluates candidate pairings.
type Gate struct {
	scorer ports.PlausibilityScorer
	opts   Options
}

// New builds a gate around the external scorer.
func New(scorer ports.PlausibilityScorer, opts Options) *Gate {
	if opts.LaughTestThreshold <= 0 {
		opts.LaughTestThreshold = 70
	}
	if opts.MinEffectiveness <= 0 {
		opts.MinEffectiveness = 3.5
	}
	if opts.MaxEffectiveness <= 0 {
		opts.MaxEffectiveness = 5.0
	}
	return &Gate{scorer: scorer, opts: opts}
}

// Pairing is one candidate association under evaluation.
type Pairing struct {
	Candidate models.SolutionCandidate
	Goal      models.Goal
}

// EvaluateBatch runs stages A-C per pairing, then submits the
// survivors to the external laugh test in one batched call. Results
// are positional: results[i] describes pairings[i].
func (g *Gate) EvaluateBatch(ctx context.Context, pairings []Pairing) ([]models.ValidationResult, error) {
	results := make([]models.ValidationResult, len(pairings))
	survivors := make([]int, 0, len(pairings))
	reqs := make([]ports.ScoreRequest, 0, len(pairings))

	for i, p := range pairings {
		result := g.evaluateLocal(p)
		results[i] = result
		if result.Rejected() {
			log.Printf("[Gate] rejected %q -> %q at %s: %s",
				p.Candidate.Title, p.Goal.Title, result.RejectedAtStage, result.RejectionReason)
			continue
		}
		survivors = append(survivors, i)
		reqs = append(reqs, ports.ScoreRequest{
			SolutionTitle:       p.Candidate.Title,
			SolutionDescription: p.Candidate.Description,
			GoalTitle:           p.Goal.Title,
			Category:            p.Candidate.Category,
		})
	}

	if len(survivors) == 0 {
		return results, nil
	}

	scores, err := g.scorer.ScoreBatch(ctx, reqs)
	if err != nil || len(scores) != len(reqs) {
		// Fail-open: transient scorer trouble must not stall the
		// pipeline. Labeled as a service error, not a rejection.
		if err == nil {
			err = fmt.Errorf("scorer returned %d scores for %d requests", len(scores), len(reqs))
		}
		log.Printf("[Gate] laugh test unavailable, passing %d pairings fail-open: %v", len(survivors), err)
		for _, idx := range survivors {
			results[idx].ServiceError = true
		}
		return results, nil
	}

	for n, idx := range survivors {
		score := scores[n]
		results[idx].LaughTest = &score
		if score.Overall < g.opts.LaughTestThreshold || !score.Passes {
			results[idx].Credible = false
			results[idx].RejectedAtStage = StageLaugh
			results[idx].RejectionReason = fmt.Sprintf("laugh test scored %.0f (threshold %.0f)", score.Overall, g.opts.LaughTestThreshold)
			log.Printf("[Gate] rejected %q -> %q at %s: %s",
				pairings[idx].Candidate.Title, pairings[idx].Goal.Title, StageLaugh, results[idx].RejectionReason)
		}
	}
	return results, nil
}

// evaluateLocal runs the deterministic stages (A-C) and computes
// confidence plus the effectiveness projection.
func (g *Gate) evaluateLocal(p Pairing) models.ValidationResult {
	result := models.ValidationResult{Credible: true}

	rules, ok := RulesFor(p.Candidate.Category)
	if !ok {
		return reject(StageRules, "unknown category "+p.Candidate.Category)
	}

	// Stage A: hard pattern rules and the effectiveness floor.
	if len(rules.ForbidPatterns) > 0 {
		for _, pat := range rules.ForbidPatterns {
			if pat.MatchString(p.Goal.Title) {
				return reject(StageRules, "goal matches forbidden pattern "+pat.String())
			}
		}
	}
	if len(rules.AllowPatterns) > 0 {
		allowed := false
		for _, pat := range rules.AllowPatterns {
			if pat.MatchString(p.Goal.Title) {
				allowed = true
				break
			}
		}
		if !allowed {
			return reject(StageRules, "goal matches no allowed pattern for "+p.Candidate.Category)
		}
	}
	if p.Candidate.Effectiveness < rules.MinEffectiveness {
		return reject(StageRules, fmt.Sprintf("effectiveness %.2f below category floor %.2f",
			p.Candidate.Effectiveness, rules.MinEffectiveness))
	}

	// Stage B: semantic relevance.
	solutionKeywords := extractKeywords(p.Candidate.Title + " " + p.Candidate.Description)
	goalKeywords := extractKeywords(p.Goal.Title)
	overlap := keywordOverlap(solutionKeywords, goalKeywords)
	result.SemanticRelevance = overlap

	minOverlap := rules.MinSemanticOverlap
	if rules.BroadExpertise {
		minOverlap = 0
	}
	if overlap < minOverlap {
		return reject(StageSemantic, fmt.Sprintf("keyword overlap %.2f below minimum %.2f", overlap, minOverlap))
	}
	if contradicts, detail := hasContradiction(solutionKeywords, goalKeywords); contradicts {
		return reject(StageSemantic, "contradictory domains: "+detail)
	}

	// Stage C: domain-expertise signal.
	domainHit := anyIn(rules.DomainKeywords, toSet(goalKeywords))
	if domainHit {
		result.DomainExpertise = 1.0
	} else {
		result.DomainExpertise = 0.3
		if g.opts.StrictDomainCheck {
			return reject(StageDomain, "goal outside category domain keywords (strict mode)")
		}
	}

	perfectMatch := anyIn(rules.PerfectMatchKeywords, toSet(goalKeywords))
	result.Confidence = g.confidence(overlap, result.DomainExpertise, domainHit, perfectMatch)
	result.ProjectedEffect = g.projectEffectiveness(p.Candidate.Effectiveness, overlap, minOverlap, domainHit, perfectMatch)
	return result
}

// confidence aggregates the deterministic signals. High needs a direct
// keyword match, category alignment, and a strong combined score.
func (g *Gate) confidence(overlap, domainScore float64, domainHit, perfectMatch bool) string {
	combined := (overlap + domainScore) / 2
	directMatch := perfectMatch || overlap >= 0.5

	switch {
	case directMatch && domainHit && combined > 0.8:
		return models.ConfidenceHigh
	case (directMatch || domainHit) && combined > 0.6:
		return models.ConfidenceMedium
	case combined > 0.4:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// projectEffectiveness applies the relevance multiplier and clamps.
func (g *Gate) projectEffectiveness(base, overlap, minOverlap float64, domainHit, perfectMatch bool) float64 {
	multiplier := 0.9
	switch {
	case perfectMatch:
		multiplier = 1.0
	case domainHit:
		multiplier = 0.95
	case overlap <= minOverlap:
		multiplier = 0.85
	}

	projected := base * multiplier
	if projected < g.opts.MinEffectiveness {
		projected = g.opts.MinEffectiveness
	}
	if projected > g.opts.MaxEffectiveness {
		projected = g.opts.MaxEffectiveness
	}
	return projected
}

func reject(stage, reason string) models.ValidationResult {
	return models.ValidationResult{
		Credible:        false,
		RejectedAtStage: stage,
		RejectionReason: reason,
	}
}
