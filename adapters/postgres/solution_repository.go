package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// SolutionRepositoryImpl implements SolutionRepository for PostgreSQL
type SolutionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSolutionRepository creates a new PostgreSQL solution repository
func NewSolutionRepository(db *sqlx.DB) ports.SolutionRepository {
	return &SolutionRepositoryImpl{db: db}
}

// FindByNormalizedTitle matches on lower(trimmed title); the caller
// passes the already-normalized key.
func (r *SolutionRepositoryImpl) FindByNormalizedTitle(ctx context.Context, category, title string) (*models.CanonicalSolution, error) {
	var sol models.CanonicalSolution
	err := r.db.GetContext(ctx, &sol, `
		SELECT id, title, category, created_at
		FROM solutions
		WHERE category = $1 AND lower(btrim(title)) = lower(btrim($2))
		LIMIT 1`, category, title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find solution by title: %w", err)
	}
	return &sol, nil
}

// SearchByTitleSubstring returns solutions whose title contains the
// substring, case-insensitively.
func (r *SolutionRepositoryImpl) SearchByTitleSubstring(ctx context.Context, category, substr string) ([]models.CanonicalSolution, error) {
	var solutions []models.CanonicalSolution
	err := r.db.SelectContext(ctx, &solutions, `
		SELECT id, title, category, created_at
		FROM solutions
		WHERE category = $1 AND title ILIKE '%' || $2 || '%'
		ORDER BY title`, category, substr)
	if err != nil {
		return nil, fmt.Errorf("search solutions by substring: %w", err)
	}
	return solutions, nil
}

// ListByCategory returns every solution in the category.
func (r *SolutionRepositoryImpl) ListByCategory(ctx context.Context, category string) ([]models.CanonicalSolution, error) {
	var solutions []models.CanonicalSolution
	err := r.db.SelectContext(ctx, &solutions, `
		SELECT id, title, category, created_at
		FROM solutions
		WHERE category = $1
		ORDER BY title`, category)
	if err != nil {
		return nil, fmt.Errorf("list solutions: %w", err)
	}
	return solutions, nil
}

// InsertSolution creates the solution and its variant rows in one
// transaction. Categories without explicit variants get a Standard one
// so every connection has a variant to attach to.
func (r *SolutionRepositoryImpl) InsertSolution(ctx context.Context, title, category string, variants []models.VariantSpec) (uuid.UUID, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin insert solution: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO solutions (id, title, category, created_at)
		VALUES ($1, $2, $3, NOW())`, id, title, category)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert solution: %w", err)
	}

	if len(variants) == 0 {
		variants = []models.VariantSpec{{}}
	}
	for _, v := range variants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO solution_variants (id, solution_id, amount, unit, form)
			VALUES ($1, $2, $3, $4, $5)`, uuid.New(), id, v.Amount, v.Unit, v.Form)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert variant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("commit insert solution: %w", err)
	}
	return id, nil
}

// EnsureVariant finds the variant matching the spec or creates it.
func (r *SolutionRepositoryImpl) EnsureVariant(ctx context.Context, solutionID uuid.UUID, spec models.VariantSpec) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM solution_variants
		WHERE solution_id = $1 AND amount = $2 AND unit = $3 AND form = $4
		LIMIT 1`, solutionID, spec.Amount, spec.Unit, spec.Form).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("find variant: %w", err)
	}

	id = uuid.New()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO solution_variants (id, solution_id, amount, unit, form)
		VALUES ($1, $2, $3, $4, $5)`, id, solutionID, spec.Amount, spec.Unit, spec.Form)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert variant: %w", err)
	}
	return id, nil
}
