package mysql

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	domain "github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

type TicketRepository struct{ db *sql.DB }

func NewTicketRepository(db *sql.DB) *TicketRepository { return &TicketRepository{db: db} }

// Create inserts all tickets in one transaction
func (r *TicketRepository) Create(ctx context.Context, in []domain.NewTicket) ([]*domain.Ticket, error) {
	const q = `
INSERT INTO tickets (title, description, created_at)
VALUES (?,?,?)`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	out := make([]*domain.Ticket, 0, len(in))
	for _, n := range in {
		res, err := tx.ExecContext(ctx, q, n.Title, n.Description, now)
		if err != nil {
			return nil, fmt.Errorf("inserting ticket: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		out = append(out, &domain.Ticket{ID: id, Title: n.Title, Description: n.Description, CreatedAt: now})
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
WHERE id=?`
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
LIMIT ? OFFSET ?`
	return r.query(ctx, q, limit, skip)
}

// Resolve returns the matching tickets, or all of them when ids is empty.
// Big id sets are split into batches read inside one transaction.
func (r *TicketRepository) Resolve(ctx context.Context, ids []int64) ([]*domain.Ticket, error) {
	if len(ids) == 0 {
		return r.query(ctx, `SELECT id, title, description, created_at FROM tickets ORDER BY id`)
	}
	ids = uniqueIDs(ids)
	if len(ids) <= resolveBatch {
		marks, args := inClause(ids)
		return queryTickets(ctx, r.db, resolveQuery(marks), args...)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := []*domain.Ticket{}
	for batch := range slices.Chunk(ids, resolveBatch) {
		marks, args := inClause(batch)
		found, err := queryTickets(ctx, tx, resolveQuery(marks), args...)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *domain.Ticket) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func resolveQuery(marks string) string {
	return `
SELECT id, title, description, created_at
FROM tickets
WHERE id IN (` + marks + `)
ORDER BY id`
}

// Delete removes a ticket; ticket_analysis rows go with it
func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TicketRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Ticket, error) {
	return queryTickets(ctx, r.db, q, args...)
}

func queryTickets(ctx context.Context, db queryer, q string, args ...any) ([]*domain.Ticket, error) {
	rows, err := db.QueryContext(ctx, q, args...)
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
