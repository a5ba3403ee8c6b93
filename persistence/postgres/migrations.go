package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS workflows (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		workspace_id    TEXT NOT NULL,
		created_by      TEXT NOT NULL DEFAULT '',
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		triggers        JSONB NOT NULL DEFAULT '[]',
		conditions      JSONB NOT NULL DEFAULT '[]',
		actions         JSONB NOT NULL DEFAULT '[]',
		execution_count BIGINT NOT NULL DEFAULT 0 CHECK (execution_count >= 0),
		last_executed   TIMESTAMPTZ NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS workflows_workspace_idx ON workflows (workspace_id)`,
	`CREATE TABLE IF NOT EXISTS workflow_events (
		seq         BIGSERIAL PRIMARY KEY,
		id          TEXT NOT NULL UNIQUE,
		workflow_id TEXT NOT NULL,
		event_type  TEXT NOT NULL,
		event_data  JSONB NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS workflow_events_workflow_idx ON workflow_events (workflow_id, seq DESC)`,
}

// Apply runs every migration in order. All statements are idempotent.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
