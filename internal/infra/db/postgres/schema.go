package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tickets (
  id          BIGSERIAL PRIMARY KEY,
  title       TEXT NOT NULL,
  description TEXT NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS analysis_runs (
  id         BIGSERIAL PRIMARY KEY,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  summary    TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created ON analysis_runs (created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS ticket_analysis (
  id              BIGSERIAL PRIMARY KEY,
  analysis_run_id BIGINT NOT NULL REFERENCES analysis_runs (id) ON DELETE CASCADE,
  ticket_id       BIGINT NOT NULL REFERENCES tickets (id) ON DELETE CASCADE,
  category        TEXT NOT NULL,
  priority        TEXT NOT NULL,
  notes           TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_analysis_run ON ticket_analysis (analysis_run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_analysis_ticket ON ticket_analysis (ticket_id)`,
}

// Migrate creates the tables if they do not exist yet
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
