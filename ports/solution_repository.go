package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/jandy1990/wwfm-platform-sub002/models"
)

// SolutionRepository is the persistent-store surface the entity
// resolver works against. Find methods return (nil, nil) when nothing
// matches.
type SolutionRepository interface {
	// FindByNormalizedTitle looks up one solution by its
	// whitespace/article-normalized title within a category.
	FindByNormalizedTitle(ctx context.Context, category, title string) (*models.CanonicalSolution, error)

	// SearchByTitleSubstring returns solutions in the category whose
	// title contains the substring, used for just-in-time cache fill.
	SearchByTitleSubstring(ctx context.Context, category, substr string) ([]models.CanonicalSolution, error)

	// ListByCategory returns every solution in the category, used to
	// warm the per-run title cache.
	ListByCategory(ctx context.Context, category string) ([]models.CanonicalSolution, error)

	// InsertSolution creates a new canonical solution with its variants
	// and returns its id.
	InsertSolution(ctx context.Context, title, category string, variants []models.VariantSpec) (uuid.UUID, error)

	// EnsureVariant finds or creates the variant row matching the spec
	// under a solution and returns its id.
	EnsureVariant(ctx context.Context, solutionID uuid.UUID, spec models.VariantSpec) (uuid.UUID, error)
}
