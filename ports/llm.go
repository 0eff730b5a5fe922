package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/models"
)

// LLMClient is the raw text-generation capability. Responses may be
// malformed or truncated; callers validate before use.
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)
}

// GeneratedAssociation pairs a proposed candidate with the goal it
// targets.
type GeneratedAssociation struct {
	GoalID    uuid.UUID
	Candidate models.SolutionCandidate
}

// AssociationGenerator asks the generation service which of the given
// goals a solution plausibly helps, with per-field values in free text.
type AssociationGenerator interface {
	GenerateAssociations(ctx context.Context, solutionTitle, category string, goals []models.Goal) ([]GeneratedAssociation, error)
}
