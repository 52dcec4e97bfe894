package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS spaces (
		space_id BIGINT PRIMARY KEY,
		settings JSONB NOT NULL DEFAULT '{}'::jsonb,
		supervisors BIGINT[] NOT NULL DEFAULT '{}',
		joins BIGINT NOT NULL DEFAULT 0,
		bans BIGINT NOT NULL DEFAULT 0,
		maintenance_hits BIGINT NOT NULL DEFAULT 0,
		schema_version INT NOT NULL DEFAULT 0,
		added_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS spaces_supervisors_idx ON spaces USING GIN (supervisors)`,
	`CREATE TABLE IF NOT EXISTS hitrun_flags (
		space_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		flagged_on TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (space_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id UUID PRIMARY KEY,
		space_id BIGINT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON audit_log (created_at)`,
	`CREATE INDEX IF NOT EXISTS audit_log_space_idx ON audit_log (space_id, created_at DESC)`,
}

// EnsureSchema creates the tables and indexes used by the bot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
