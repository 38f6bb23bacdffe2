package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	domain "github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

// resolveBatch keeps each IN list far below SQLite's bound-variable limit
const resolveBatch = 500

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type TicketRepository struct{ db *sql.DB }

func NewTicketRepository(db *sql.DB) *TicketRepository { return &TicketRepository{db: db} }

func (r *TicketRepository) Create(ctx context.Context, in []domain.NewTicket) ([]*domain.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	out := make([]*domain.Ticket, 0, len(in))
	for _, n := range in {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tickets (title, description, created_at) VALUES (?, ?, ?)`,
			n.Title, n.Description, now)
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

func (r *TicketRepository) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	var t domain.Ticket
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, created_at FROM tickets WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) List(ctx context.Context, skip, limit int) ([]*domain.Ticket, error) {
	return r.query(ctx,
		`SELECT id, title, description, created_at FROM tickets ORDER BY id LIMIT ? OFFSET ?`,
		limit, skip)
}

// Resolve returns the matching tickets ordered by id, or all of them when
// ids is empty. Large id sets are looked up in batches inside one read
// transaction so the result is still a single snapshot.
func (r *TicketRepository) Resolve(ctx context.Context, ids []int64) ([]*domain.Ticket, error) {
	if len(ids) == 0 {
		return r.query(ctx, `SELECT id, title, description, created_at FROM tickets ORDER BY id`)
	}
	ids = uniqueIDs(ids)
	if len(ids) <= resolveBatch {
		return queryTickets(ctx, r.db, inQuery(len(ids)), idArgs(ids)...)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := []*domain.Ticket{}
	for batch := range slices.Chunk(ids, resolveBatch) {
		found, err := queryTickets(ctx, tx, inQuery(len(batch)), idArgs(batch)...)
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

func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
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
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Ticket{}
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func inQuery(n int) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return `SELECT id, title, description, created_at FROM tickets WHERE id IN (` + marks + `) ORDER BY id`
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
