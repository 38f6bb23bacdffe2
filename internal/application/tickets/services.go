package tickets

import (
	"context"
	"strings"

	domain "github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Service implements ticket use-cases on top of the store
type Service struct {
	Repo domain.Repository
}

// Create stores a batch of tickets in one go
func (s *Service) Create(ctx context.Context, in []domain.NewTicket) ([]*domain.Ticket, error) {
	clean := make([]domain.NewTicket, 0, len(in))
	for _, t := range in {
		clean = append(clean, domain.NewTicket{
			Title:       strings.TrimSpace(t.Title),
			Description: strings.TrimSpace(t.Description),
		})
	}
	return s.Repo.Create(ctx, clean)
}

// List pages through tickets ordered by id
func (s *Service) List(ctx context.Context, skip, limit int) ([]*domain.Ticket, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return s.Repo.List(ctx, skip, limit)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	return s.Repo.Get(ctx, id)
}

// Delete removes a ticket together with every analysis row that references it
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Repo.Delete(ctx, id)
}
