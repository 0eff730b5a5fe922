package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jandy1990/wwfm-platform-sub002/models"
	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// ProgressRepositoryImpl implements ProgressRepository for PostgreSQL
type ProgressRepositoryImpl struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new PostgreSQL progress repository
func NewProgressRepository(db *sqlx.DB) ports.ProgressRepository {
	return &ProgressRepositoryImpl{db: db}
}

// tierCondition translates a priority tier into its connection-count
// predicate.
func tierCondition(tier string) (string, bool) {
	switch tier {
	case models.TierZero:
		return "connection_count = 0", true
	case models.TierSingle:
		return "connection_count = 1", true
	case models.TierDouble:
		return "connection_count = 2", true
	case "":
		return "connection_count <= 2", true
	default:
		return "", false
	}
}

// ClaimBatch selects pending units (plus stale in_progress ones when
// StaleBefore is set) with FOR UPDATE SKIP LOCKED, so concurrent
// workers never receive overlapping unit sets.
func (r *ProgressRepositoryImpl) ClaimBatch(ctx context.Context, filter ports.ProgressFilter, size int, ownerID uuid.UUID) ([]models.ExpansionProgress, error) {
	cond, ok := tierCondition(filter.Tier)
	if !ok {
		return nil, fmt.Errorf("unknown priority tier %q", filter.Tier)
	}

	claimable := `status = 'pending'`
	args := []interface{}{filter.Category, size, ownerID}
	if !filter.StaleBefore.IsZero() {
		claimable = `(status = 'pending' OR (status = 'in_progress' AND claimed_at < $4))`
		args = append(args, filter.StaleBefore)
	}

	query := fmt.Sprintf(`
		UPDATE expansion_progress
		SET status = 'in_progress', claimed_by = $3, claimed_at = NOW(), updated_at = NOW()
		WHERE id IN (
			SELECT id FROM expansion_progress
			WHERE category = $1 AND %s AND %s
			ORDER BY connection_count ASC, attempts_count ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, solution_id, solution_title, category, connection_count, attempts_count,
			rejection_rate, avg_effectiveness, status, claimed_by, claimed_at, last_error, updated_at`,
		claimable, cond)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	defer rows.Close()

	var units []models.ExpansionProgress
	for rows.Next() {
		var unit models.ExpansionProgress
		if err := rows.StructScan(&unit); err != nil {
			return nil, fmt.Errorf("scan claimed unit: %w", err)
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// UpdateProgress applies a release outcome and clears claim ownership.
func (r *ProgressRepositoryImpl) UpdateProgress(ctx context.Context, id uuid.UUID, update ports.ProgressUpdate) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE expansion_progress
		SET connection_count = $2, attempts_count = $3, rejection_rate = $4,
			avg_effectiveness = $5, status = $6, last_error = $7,
			claimed_by = NULL, claimed_at = NULL, updated_at = NOW()
		WHERE id = $1`,
		id, update.ConnectionCount, update.AttemptsCount, update.RejectionRate,
		update.AvgEffectiveness, update.Status, update.LastError)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("update progress: no row with id %s", id)
	}
	return nil
}

// EnsureProgress lazily creates the pending record; existing rows are
// left untouched.
func (r *ProgressRepositoryImpl) EnsureProgress(ctx context.Context, solutionID uuid.UUID, title, category string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expansion_progress (id, solution_id, solution_title, category, status, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		ON CONFLICT (solution_id, category) DO NOTHING`,
		uuid.New(), solutionID, title, category)
	if err != nil {
		return fmt.Errorf("ensure progress: %w", err)
	}
	return nil
}

// CategoryStats returns the coverage counters for one category.
func (r *ProgressRepositoryImpl) CategoryStats(ctx context.Context, category string) (ports.ProgressStats, error) {
	var stats ports.ProgressStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE connection_count > 0),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM expansion_progress
		WHERE category = $1`, category).Scan(&stats.Total, &stats.WithConnections, &stats.Pending)
	if err != nil {
		return ports.ProgressStats{}, fmt.Errorf("category stats: %w", err)
	}
	return stats, nil
}
