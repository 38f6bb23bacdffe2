package tickets

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a ticket id does not exist
var ErrNotFound = errors.New("ticket not found")

// Ticket is a submitted support ticket. It is never updated after creation.
type Ticket struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTicket is the input for bulk creation
type NewTicket struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
