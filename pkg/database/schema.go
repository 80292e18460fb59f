package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements bootstrap the authoritative event table. Rows are soft deleted via
// is_deleted and only disappear through an explicit clean.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS calendar_events (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_at TIMESTAMPTZ NULL,
	end_at TIMESTAMPTZ NULL,
	all_day BOOLEAN NOT NULL DEFAULT FALSE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	rescheduled_from_id TEXT NULL,
	rescheduled_from_start TIMESTAMPTZ NULL,
	rescheduled_from_end TIMESTAMPTZ NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_events_start_active ON calendar_events (start_at) WHERE is_deleted = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_events_rescheduled_from ON calendar_events (rescheduled_from_id)`,
}

// Migrate applies the schema idempotently inside one transaction.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema migration: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema migration: %w", err)
	}
	return nil
}
