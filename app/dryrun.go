package app

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// DryRunSolutionRepository reads through to the real store but fakes
// every write, so title resolution still sees existing solutions while
// nothing new is created.
type DryRunSolutionRepository struct {
	ports.SolutionRepository
}

func (r *DryRunSolutionRepository) InsertSolution(ctx context.Context, title, category string, variants []models.VariantSpec) (uuid.UUID, error) {
	log.Printf("[DryRun] would create solution %q in %s", title, category)
	return uuid.New(), nil
}

func (r *DryRunSolutionRepository) EnsureVariant(ctx context.Context, solutionID uuid.UUID, spec models.VariantSpec) (uuid.UUID, error) {
	log.Printf("[DryRun] would ensure variant %q for solution %s", spec.Label(), solutionID)
	return uuid.New(), nil
}

// DryRunConnectionRepository reads through but logs instead of writing.
type DryRunConnectionRepository struct {
	ports.ConnectionRepository
}

func (r *DryRunConnectionRepository) InsertLink(ctx context.Context, link *models.Connection) error {
	log.Printf("[DryRun] would create link goal=%s variant=%s effectiveness=%.2f",
		link.GoalID, link.VariantID, link.Effectiveness)
	return nil
}

func (r *DryRunConnectionRepository) UpdateLink(ctx context.Context, link *models.Connection) error {
	log.Printf("[DryRun] would update link %s", link.ID)
	return nil
}

// DryRunProgressRepository claims and reads normally but never moves
// state, so a rehearsal does not consume or relabel real work.
type DryRunProgressRepository struct {
	ports.ProgressRepository
}

func (r *DryRunProgressRepository) UpdateProgress(ctx context.Context, id uuid.UUID, update ports.ProgressUpdate) error {
	log.Printf("[DryRun] would mark unit %s as %s", id, update.Status)
	return nil
}

func (r *DryRunProgressRepository) EnsureProgress(ctx context.Context, solutionID uuid.UUID, title, category string) error {
	log.Printf("[DryRun] would queue %q for expansion", title)
	return nil
}
