package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

type TicketRepository struct{ db *sql.DB }

func NewTicketRepository(db *sql.DB) *TicketRepository { return &TicketRepository{db: db} }

// Create inserts all tickets in one transaction
func (r *TicketRepository) Create(ctx context.Context, in []domain.NewTicket) ([]*domain.Ticket, error) {
	const q = `
INSERT INTO tickets (title, description, created_at)
VALUES ($1,$2,$3)
RETURNING id;`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	out := make([]*domain.Ticket, 0, len(in))
	for _, n := range in {
		t := &domain.Ticket{Title: n.Title, Description: n.Description, CreatedAt: now}
		if err := tx.QueryRowContext(ctx, q, t.Title, t.Description, t.CreatedAt).Scan(&t.ID); err != nil {
			return nil, fmt.Errorf("inserting ticket: %w", err)
		}
		out = append(out, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get by ID
func (r *TicketRepository) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	const q = `
SELECT id, title, description, created_at
FROM tickets
WHERE id=$1;`
	var t domain.Ticket
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List with offset + limit ordered by id
func (r *TicketRepository) List(ctx context.Context, skip, limit int) ([]*domain.Ticket, error) {
	const q = `
SELECT id, title, description, created_at
FROM tickets
ORDER BY id
LIMIT $1 OFFSET $2;`
	return r.query(ctx, q, limit, skip)
}

// Resolve returns the matching tickets, or all of them when ids is empty
func (r *TicketRepository) Resolve(ctx context.Context, ids []int64) ([]*domain.Ticket, error) {
	if len(ids) == 0 {
		const q = `SELECT id, title, description, created_at FROM tickets ORDER BY id;`
		return r.query(ctx, q)
	}
	const q = `
SELECT id, title, description, created_at
FROM tickets
WHERE id = ANY($1)
ORDER BY id;`
	return r.query(ctx, q, pq.Array(ids))
}

// Delete removes a ticket; ticket_analysis rows go with it
func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TicketRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}
	defer rows.Close()

	out := []*domain.Ticket{}
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
