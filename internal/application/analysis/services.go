package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bryanwahyu/ticket-assist/internal/application"
	domain "github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Service runs the analysis pipeline and serves past runs.
// It keeps no state between calls; the stores are the only shared resource.
type Service struct {
	Tickets    tickets.Repository
	Runs       domain.Repository
	Classifier domain.Classifier
	Clock      application.Clock

	// Archive is optional; a failed upload never fails the run.
	Archive domain.Archive

	// Concurrency bounds parallel classification calls; <=1 is sequential.
	Concurrency int

	// OnFinished, when set, is called after every RunAnalysis attempt that got past resolution.
	OnFinished func(analyzed int, err error)
}

// RunAnalysis classifies the tickets named by ids (all tickets when ids is
// empty) and persists the run with its rows as one unit.
func (s *Service) RunAnalysis(ctx context.Context, ids []int64) (*domain.Result, error) {
	list, err := s.Tickets.Resolve(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve tickets: %w", domain.ErrStoreFailure, err)
	}
	if len(list) == 0 {
		return nil, domain.ErrEmptyInput
	}

	res, err := s.run(ctx, list)
	if s.OnFinished != nil {
		s.OnFinished(len(list), err)
	}
	return res, err
}

func (s *Service) run(ctx context.Context, list []*tickets.Ticket) (*domain.Result, error) {
	start := time.Now()
	run := &domain.Run{CreatedAt: s.now()}

	rows := s.classifyAll(ctx, list)
	summary := domain.BuildSummary(rows)
	run.Summary = &summary

	if err := s.Runs.Create(ctx, run, rows); err != nil {
		log.Printf("analysis run failed tickets=%d err=%v", len(list), err)
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	}
	for i, r := range rows {
		r.Ticket = list[i]
	}

	res := &domain.Result{Run: run, Analyses: rows}
	log.Printf("analysis run=%d tickets=%d duration=%s", run.ID, len(rows), time.Since(start))

	if s.Archive != nil {
		if key, err := s.Archive.Put(ctx, res); err != nil {
			log.Printf("analysis archive failed run=%d err=%v", run.ID, err)
		} else {
			log.Printf("analysis archived run=%d key=%s", run.ID, key)
		}
	}
	return res, nil
}

// classifyAll returns one row per ticket in input order
func (s *Service) classifyAll(ctx context.Context, list []*tickets.Ticket) []*domain.TicketAnalysis {
	rows := make([]*domain.TicketAnalysis, len(list))
	classify := func(i int) {
		c := s.Classifier.Classify(ctx, list[i])
		rows[i] = &domain.TicketAnalysis{
			TicketID: list[i].ID,
			Category: c.Category,
			Priority: c.Priority,
			Notes:    c.Notes,
		}
	}

	if s.Concurrency <= 1 {
		for i := range list {
			classify(i)
		}
		return rows
	}

	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup
	for i := range list {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			classify(idx)
		}(i)
	}
	wg.Wait()
	return rows
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

// Latest returns the most recent run with its rows
func (s *Service) Latest(ctx context.Context) (*domain.Result, error) {
	return s.Runs.Latest(ctx)
}

// Get returns one run with its rows
func (s *Service) Get(ctx context.Context, id int64) (*domain.Result, error) {
	return s.Runs.Get(ctx, id)
}

// List returns runs newest first
func (s *Service) List(ctx context.Context, skip, limit int) ([]*domain.Run, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return s.Runs.List(ctx, skip, limit)
}

// Delete removes a run and its rows; tickets stay
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Runs.Delete(ctx, id)
}
