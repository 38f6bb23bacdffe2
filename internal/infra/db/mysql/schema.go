package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tickets (
  id          BIGINT AUTO_INCREMENT PRIMARY KEY,
  title       TEXT NOT NULL,
  description TEXT NOT NULL,
  created_at  DATETIME(6) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS analysis_runs (
  id         BIGINT AUTO_INCREMENT PRIMARY KEY,
  created_at DATETIME(6) NOT NULL,
  summary    TEXT NULL,
  INDEX idx_analysis_runs_created (created_at, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS ticket_analysis (
  id              BIGINT AUTO_INCREMENT PRIMARY KEY,
  analysis_run_id BIGINT NOT NULL,
  ticket_id       BIGINT NOT NULL,
  category        VARCHAR(32) NOT NULL,
  priority        VARCHAR(16) NOT NULL,
  notes           TEXT NOT NULL,
  INDEX idx_ticket_analysis_run (analysis_run_id),
  INDEX idx_ticket_analysis_ticket (ticket_id),
  CONSTRAINT fk_ticket_analysis_run FOREIGN KEY (analysis_run_id) REFERENCES analysis_runs (id) ON DELETE CASCADE,
  CONSTRAINT fk_ticket_analysis_ticket FOREIGN KEY (ticket_id) REFERENCES tickets (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
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
