package ports

import (
	"context"

	"github.com/jandy1990/wwfm-platform-sub002/models"
)

// ScoreRequest is one solution-goal pairing submitted to the holistic
// plausibility check.
type ScoreRequest struct {
	SolutionTitle       string
	SolutionDescription string
	GoalTitle           string
	Category            string
}

// PlausibilityScorer is the external "laugh test" capability, modeled
// as a black box so the gate's aggregation logic is testable with a
// deterministic double. Results are positional: scores[i] answers
// reqs[i].
type PlausibilityScorer interface {
	ScoreBatch(ctx context.Context, reqs []ScoreRequest) ([]models.LaughTestScore, error)
}
