package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

// Create writes the run and all of its rows in a single transaction
func (r *AnalysisRepository) Create(ctx context.Context, run *domain.Run, rows []*domain.TicketAnalysis) error {
	const qRun = `
INSERT INTO analysis_runs (created_at, summary)
VALUES (?,?)`
	const qRow = `
INSERT INTO ticket_analysis (analysis_run_id, ticket_id, category, priority, notes)
VALUES (?,?,?,?,?)`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx, qRun, run.CreatedAt, run.Summary)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	ids := make([]int64, len(rows))
	for i, a := range rows {
		res, err := tx.ExecContext(ctx, qRow, runID, a.TicketID, a.Category, a.Priority, a.Notes)
		if err != nil {
			return fmt.Errorf("inserting ticket analysis: %w", err)
		}
		if ids[i], err = res.LastInsertId(); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	run.ID = runID
	for i, a := range rows {
		a.ID = ids[i]
		a.AnalysisRunID = runID
	}
	return nil
}

// Get one run with its rows and tickets
func (r *AnalysisRepository) Get(ctx context.Context, id int64) (*domain.Result, error) {
	const q = `
SELECT id, created_at, summary
FROM analysis_runs
WHERE id=?`
	return r.result(ctx, r.db.QueryRowContext(ctx, q, id))
}

// Latest run by created_at, ties broken by id
func (r *AnalysisRepository) Latest(ctx context.Context) (*domain.Result, error) {
	const q = `
SELECT id, created_at, summary
FROM analysis_runs
ORDER BY created_at DESC, id DESC
LIMIT 1`
	return r.result(ctx, r.db.QueryRowContext(ctx, q))
}

// List runs newest first
func (r *AnalysisRepository) List(ctx context.Context, skip, limit int) ([]*domain.Run, error) {
	const q = `
SELECT id, created_at, summary
FROM analysis_runs
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	out := []*domain.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Delete removes a run; its rows are removed by cascade
func (r *AnalysisRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AnalysisRepository) result(ctx context.Context, row *sql.Row) (*domain.Result, error) {
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	const q = `
SELECT ta.id, ta.analysis_run_id, ta.ticket_id, ta.category, ta.priority, ta.notes,
       t.id, t.title, t.description, t.created_at
FROM ticket_analysis ta
JOIN tickets t ON t.id = ta.ticket_id
WHERE ta.analysis_run_id=?
ORDER BY ta.id`
	rows, err := r.db.QueryContext(ctx, q, run.ID)
	if err != nil {
		return nil, fmt.Errorf("querying ticket analyses: %w", err)
	}
	defer rows.Close()

	analyses := []*domain.TicketAnalysis{}
	for rows.Next() {
		var a domain.TicketAnalysis
		var t tickets.Ticket
		if err := rows.Scan(
			&a.ID, &a.AnalysisRunID, &a.TicketID, &a.Category, &a.Priority, &a.Notes,
			&t.ID, &t.Title, &t.Description, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		a.Ticket = &t
		analyses = append(analyses, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &domain.Result{Run: run, Analyses: analyses}, nil
}

func scanRun(s interface{ Scan(dest ...any) error }) (*domain.Run, error) {
	var run domain.Run
	var summary sql.NullString
	if err := s.Scan(&run.ID, &run.CreatedAt, &summary); err != nil {
		return nil, err
	}
	if summary.Valid {
		run.Summary = &summary.String
	}
	return &run, nil
}
