package ai

import (
	"context"
	"log"
	"time"

	"github.com/bryanwahyu/ticket-assist/internal/domain/ai"
	"github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
	"github.com/bryanwahyu/ticket-assist/internal/infra/ai/prompt"
)

// Service is the LLM-backed classification strategy. Every failure on a
// ticket (provider error, timeout, unusable reply) is answered with the
// fallback classifier's output for that ticket.
type Service struct {
	client   ai.Client
	fallback analysis.Classifier
	timeout  time.Duration

	// OnDegraded, when set, is called once per ticket that fell back.
	OnDegraded func()
}

func NewService(client ai.Client, fallback analysis.Classifier, timeout time.Duration) *Service {
	return &Service{client: client, fallback: fallback, timeout: timeout}
}

func (s *Service) Classify(ctx context.Context, t *tickets.Ticket) analysis.Classification {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.client.Complete(ctx, prompt.GetSystemPrompt(), prompt.GetUserPrompt(t.Title, t.Description))
	if err == nil {
		var c analysis.Classification
		if c, err = prompt.ParseReply(reply); err == nil {
			return c
		}
	}

	log.Printf("classification degraded ticket=%d err=%v", t.ID, err)
	if s.OnDegraded != nil {
		s.OnDegraded()
	}
	return s.fallback.Classify(ctx, t)
}

// NewClassifier picks the strategy once: the LLM service when a client is
// configured, the keyword heuristic otherwise.
func NewClassifier(client ai.Client, timeout time.Duration, onDegraded func()) analysis.Classifier {
	if client == nil {
		return analysis.Heuristic{}
	}
	svc := NewService(client, analysis.Heuristic{}, timeout)
	svc.OnDegraded = onDegraded
	return svc
}
