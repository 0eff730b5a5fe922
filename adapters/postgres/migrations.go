package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
)

// Migrate creates the curation schema. Statements are idempotent so
// every worker can run them at startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS goals (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS solutions (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solutions_category_title
			ON solutions (category, lower(btrim(title)))`,
		`CREATE TABLE IF NOT EXISTS solution_variants (
			id UUID PRIMARY KEY,
			solution_id UUID NOT NULL REFERENCES solutions(id),
			amount TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL DEFAULT '',
			form TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS goal_connections (
			id UUID PRIMARY KEY,
			goal_id UUID NOT NULL REFERENCES goals(id),
			variant_id UUID NOT NULL REFERENCES solution_variants(id),
			fields JSONB NOT NULL DEFAULT '{}',
			distributions JSONB NOT NULL DEFAULT '{}',
			effectiveness DOUBLE PRECISION NOT NULL,
			rationale TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (goal_id, variant_id)
		)`,
		`CREATE TABLE IF NOT EXISTS expansion_progress (
			id UUID PRIMARY KEY,
			solution_id UUID NOT NULL REFERENCES solutions(id),
			solution_title TEXT NOT NULL,
			category TEXT NOT NULL,
			connection_count INT NOT NULL DEFAULT 0,
			attempts_count INT NOT NULL DEFAULT 0,
			rejection_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_effectiveness DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			claimed_by UUID,
			claimed_at TIMESTAMPTZ,
			last_error TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (solution_id, category)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_claim
			ON expansion_progress (category, status, connection_count)`,
		`CREATE TABLE IF NOT EXISTS generation_quota (
			quota_date TEXT PRIMARY KEY,
			request_count INT NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "running migration statement")
		}
	}
	return nil
}
