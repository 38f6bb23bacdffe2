package tickets

import "context"

// Repository port for the ticket table
type Repository interface {
	Create(ctx context.Context, in []NewTicket) ([]*Ticket, error)
	Get(ctx context.Context, id int64) (*Ticket, error)
	List(ctx context.Context, skip, limit int) ([]*Ticket, error)

	// Resolve returns the tickets matching ids ordered by id, or every ticket
	// when ids is empty. Unknown ids are skipped.
	Resolve(ctx context.Context, ids []int64) ([]*Ticket, error)

	// Delete removes the ticket and, by cascade, all its analysis rows.
	Delete(ctx context.Context, id int64) error
}
