package analysis

import (
	"context"

	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

// Classifier assigns a category and priority to a ticket. Implementations
// must always return a complete Classification.
type Classifier interface {
	Classify(ctx context.Context, t *tickets.Ticket) Classification
}

// Repository port for analysis runs and their rows
type Repository interface {
	// Create persists run and rows in one transaction and fills in their ids.
	Create(ctx context.Context, run *Run, rows []*TicketAnalysis) error
	Get(ctx context.Context, id int64) (*Result, error)
	Latest(ctx context.Context) (*Result, error)
	List(ctx context.Context, skip, limit int) ([]*Run, error)
	Delete(ctx context.Context, id int64) error
}

// Archive stores a snapshot of a completed run outside the database
type Archive interface {
	Put(ctx context.Context, res *Result) (string, error)
}
