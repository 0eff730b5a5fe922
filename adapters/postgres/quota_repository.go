package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jandy1990/wwfm-platform-sub002/ports"
)

// QuotaRepositoryImpl implements QuotaRepository for PostgreSQL.
// One row per date; an absent row reads as zero usage, so date
// rollover resets automatically.
type QuotaRepositoryImpl struct {
	db *sqlx.DB
}

// NewQuotaRepository creates a new PostgreSQL quota repository
func NewQuotaRepository(db *sqlx.DB) ports.QuotaRepository {
	return &QuotaRepositoryImpl{db: db}
}

// Usage returns the request count recorded for the date.
func (r *QuotaRepositoryImpl) Usage(ctx context.Context, date string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT request_count FROM generation_quota WHERE quota_date = $1`, date).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read quota: %w", err)
	}
	return count, nil
}

// Increment bumps the date's counter atomically and returns the new
// value. Safe for multiple worker processes sharing one counter.
func (r *QuotaRepositoryImpl) Increment(ctx context.Context, date string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO generation_quota (quota_date, request_count)
		VALUES ($1, 1)
		ON CONFLICT (quota_date) DO UPDATE SET request_count = generation_quota.request_count + 1
		RETURNING request_count`, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment quota: %w", err)
	}
	return count, nil
}
