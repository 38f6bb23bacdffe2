package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the database file at path with foreign keys enforced and
// creates the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_foreign_keys=on&_busy_timeout=5000"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// one writer at a time; sqlite serialises anyway
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tickets (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analysis_runs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		summary    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created ON analysis_runs(created_at, id)`,
	`CREATE TABLE IF NOT EXISTS ticket_analysis (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_run_id INTEGER NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
		ticket_id       INTEGER NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
		category        TEXT NOT NULL,
		priority        TEXT NOT NULL,
		notes           TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_analysis_run ON ticket_analysis(analysis_run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_analysis_ticket ON ticket_analysis(ticket_id)`,
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
