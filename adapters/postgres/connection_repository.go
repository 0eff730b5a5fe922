package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// ConnectionRepositoryImpl implements ConnectionRepository for PostgreSQL
type ConnectionRepositoryImpl struct {
	db *sqlx.DB
}

// NewConnectionRepository creates a new PostgreSQL connection repository
func NewConnectionRepository(db *sqlx.DB) ports.ConnectionRepository {
	return &ConnectionRepositoryImpl{db: db}
}

// FindLink returns the link for one (goal, variant) pair, if any.
func (r *ConnectionRepositoryImpl) FindLink(ctx context.Context, goalID, variantID uuid.UUID) (*models.Connection, error) {
	var link models.Connection
	var fieldsJSON, distributionsJSON []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT id, goal_id, variant_id, fields, distributions, effectiveness, rationale, created_at, updated_at
		FROM goal_connections
		WHERE goal_id = $1 AND variant_id = $2
		LIMIT 1`, goalID, variantID).Scan(
		&link.ID, &link.GoalID, &link.VariantID, &fieldsJSON, &distributionsJSON,
		&link.Effectiveness, &link.Rationale, &link.CreatedAt, &link.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find link: %w", err)
	}

	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &link.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal link fields: %w", err)
		}
	}
	if len(distributionsJSON) > 0 {
		if err := json.Unmarshal(distributionsJSON, &link.Distributions); err != nil {
			return nil, fmt.Errorf("unmarshal link distributions: %w", err)
		}
	}
	return &link, nil
}

// InsertLink creates a new connection row.
func (r *ConnectionRepositoryImpl) InsertLink(ctx context.Context, link *models.Connection) error {
	fieldsJSON, _ := json.Marshal(link.Fields)
	distributionsJSON, _ := json.Marshal(link.Distributions)

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goal_connections (id, goal_id, variant_id, fields, distributions, effectiveness, rationale, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
		link.ID, link.GoalID, link.VariantID, fieldsJSON, distributionsJSON,
		link.Effectiveness, link.Rationale)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// UpdateLink overwrites fields, distributions and effectiveness.
// Callers check FieldsEqual first; a link is never silently replaced
// with identical data.
func (r *ConnectionRepositoryImpl) UpdateLink(ctx context.Context, link *models.Connection) error {
	fieldsJSON, _ := json.Marshal(link.Fields)
	distributionsJSON, _ := json.Marshal(link.Distributions)

	result, err := r.db.ExecContext(ctx, `
		UPDATE goal_connections
		SET fields = $2, distributions = $3, effectiveness = $4, rationale = $5, updated_at = NOW()
		WHERE id = $1`,
		link.ID, fieldsJSON, distributionsJSON, link.Effectiveness, link.Rationale)
	if err != nil {
		return fmt.Errorf("update link: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("update link: no row with id %s", link.ID)
	}
	return nil
}

// GoalRepositoryImpl implements GoalRepository for PostgreSQL
type GoalRepositoryImpl struct {
	db *sqlx.DB
}

// NewGoalRepository creates a new PostgreSQL goal repository
func NewGoalRepository(db *sqlx.DB) ports.GoalRepository {
	return &GoalRepositoryImpl{db: db}
}

// ListByCategory returns the goals eligible for the category.
func (r *GoalRepositoryImpl) ListByCategory(ctx context.Context, category string) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.SelectContext(ctx, &goals, `
		SELECT id, title, category
		FROM goals
		WHERE category = $1 OR category = ''
		ORDER BY title`, category)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}
