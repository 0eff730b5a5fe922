package testkit

import (
	"context"

	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// StaticScorer is a deterministic plausibility-scorer double. Scores
// come from Overrides by goal title, falling back to Default.
type StaticScorer struct {
	Default   models.LaughTestScore
	Overrides map[string]models.LaughTestScore
	Err       error
	Calls     int
	Requests  [][]ports.ScoreRequest
}

// PassingScorer returns a scorer that passes everything at the given
// overall score.
func PassingScorer(overall float64) *StaticScorer {
	return &StaticScorer{
		Default: models.LaughTestScore{
			Overall:            overall,
			CausalDirectness:   overall,
			UserExpectation:    overall,
			ProfessionalCredit: overall,
			CommonSense:        overall,
			Passes:             true,
		},
	}
}

func (s *StaticScorer) ScoreBatch(_ context.Context, reqs []ports.ScoreRequest) ([]models.LaughTestScore, error) {
	s.Calls++
	s.Requests = append(s.Requests, reqs)
	if s.Err != nil {
		return nil, s.Err
	}
	scores := make([]models.LaughTestScore, len(reqs))
	for i, r := range reqs {
		if override, ok := s.Overrides[r.GoalTitle]; ok {
			scores[i] = override
			continue
		}
		scores[i] = s.Default
	}
	return scores, nil
}

var _ ports.PlausibilityScorer = (*StaticScorer)(nil)

// ScriptedGenerator returns canned associations per solution title.
type ScriptedGenerator struct {
	Associations map[string][]ports.GeneratedAssociation
	Err          error
}

func (g *ScriptedGenerator) GenerateAssociations(_ context.Context, solutionTitle, _ string, _ []models.Goal) ([]ports.GeneratedAssociation, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Associations[solutionTitle], nil
}

var _ ports.AssociationGenerator = (*ScriptedGenerator)(nil)
