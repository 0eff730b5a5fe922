package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// LaughTestScorer implements ports.PlausibilityScorer by asking the
// generation service to score every pairing in one batched call.
type LaughTestScorer struct {
	gen   *GenerationClient
	tries int
}

// NewLaughTestScorer builds the scorer.
func NewLaughTestScorer(gen *GenerationClient, correctiveTries int) *LaughTestScorer {
	return &LaughTestScorer{gen: gen, tries: correctiveTries}
}

// ScoreBatch submits all pairings at once and returns positional
// scores. A length mismatch in the reply is a generation error; the
// gate treats it as fail-open.
func (s *LaughTestScorer) ScoreBatch(ctx context.Context, reqs []ports.ScoreRequest) ([]models.LaughTestScore, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	var scores []models.LaughTestScore
	if err := structuredCall(ctx, s.gen, s.buildPrompt(reqs), s.tries, &scores); err != nil {
		return nil, err
	}
	if len(scores) != len(reqs) {
		return nil, errors.GenerationError(
			fmt.Sprintf("laugh test returned %d scores for %d pairings", len(scores), len(reqs)), nil)
	}
	return scores, nil
}

func (s *LaughTestScorer) buildPrompt(reqs []ports.ScoreRequest) string {
	var b strings.Builder
	b.WriteString("Would these solution-to-goal pairings intuitively make sense to an everyday user? ")
	b.WriteString("Score each pairing 0-100 overall, plus 0-100 sub-scores for causal directness, ")
	b.WriteString("user expectation match, professional credibility, and common sense.\n\nPairings:\n")
	for i, r := range reqs {
		fmt.Fprintf(&b, "%d. Solution %q (%s): %s -> Goal %q\n",
			i+1, r.SolutionTitle, r.Category, r.SolutionDescription, r.GoalTitle)
	}
	b.WriteString("\nReply with ONLY a JSON array, one object per pairing in order: ")
	b.WriteString(`[{"overall":0,"causal_directness":0,"user_expectation":0,"professional_credibility":0,"common_sense":0,"passes":false,"reasoning":""}]`)
	return b.String()
}
