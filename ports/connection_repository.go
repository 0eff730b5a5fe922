package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/models"
)

// ConnectionRepository persists goal-to-solution-variant links.
type ConnectionRepository interface {
	// FindLink returns the existing link for a (goal, variant) pair,
	// or (nil, nil) when none exists.
	FindLink(ctx context.Context, goalID, variantID uuid.UUID) (*models.Connection, error)

	// InsertLink creates a new link.
	InsertLink(ctx context.Context, link *models.Connection) error

	// UpdateLink overwrites an existing link's fields, distributions
	// and effectiveness. Callers only invoke this after detecting an
	// actual change.
	UpdateLink(ctx context.Context, link *models.Connection) error
}

// GoalRepository reads the goals available for association. The
// pipeline never writes goals.
type GoalRepository interface {
	ListByCategory(ctx context.Context, category string) ([]models.Goal, error)
}
