package analysis

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	domain "github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

type memTickets struct {
	mu   sync.Mutex
	rows []*tickets.Ticket
	err  error
}

func (m *memTickets) add(title, desc string) *tickets.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &tickets.Ticket{ID: int64(len(m.rows) + 1), Title: title, Description: desc, CreatedAt: time.Now()}
	m.rows = append(m.rows, t)
	return t
}

func (m *memTickets) Create(ctx context.Context, in []tickets.NewTicket) ([]*tickets.Ticket, error) {
	var out []*tickets.Ticket
	for _, n := range in {
		out = append(out, m.add(n.Title, n.Description))
	}
	return out, nil
}

func (m *memTickets) Get(ctx context.Context, id int64) (*tickets.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, tickets.ErrNotFound
}

func (m *memTickets) List(ctx context.Context, skip, limit int) ([]*tickets.Ticket, error) {
	return m.rows, nil
}

func (m *memTickets) Resolve(ctx context.Context, ids []int64) ([]*tickets.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(ids) == 0 {
		return append([]*tickets.Ticket(nil), m.rows...), nil
	}
	want := make(map[int64]bool)
	for _, id := range ids {
		want[id] = true
	}
	var out []*tickets.Ticket
	for _, t := range m.rows {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTickets) Delete(ctx context.Context, id int64) error { return nil }

type memRuns struct {
	mu      sync.Mutex
	runs    []*domain.Run
	rows    map[int64][]*domain.TicketAnalysis
	nextRow int64
	failErr error
}

func newMemRuns() *memRuns {
	return &memRuns{rows: make(map[int64][]*domain.TicketAnalysis)}
}

func (m *memRuns) Create(ctx context.Context, run *domain.Run, rows []*domain.TicketAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	run.ID = int64(len(m.runs) + 1)
	for _, r := range rows {
		m.nextRow++
		r.ID = m.nextRow
		r.AnalysisRunID = run.ID
	}
	m.runs = append(m.runs, run)
	m.rows[run.ID] = rows
	return nil
}

func (m *memRuns) Get(ctx context.Context, id int64) (*domain.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return &domain.Result{Run: r, Analyses: m.rows[id]}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRuns) sorted() []*domain.Run {
	out := append([]*domain.Run(nil), m.runs...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memRuns) Latest(ctx context.Context) (*domain.Result, error) {
	m.mu.Lock()
	runs := m.sorted()
	m.mu.Unlock()
	if len(runs) == 0 {
		return nil, domain.ErrNotFound
	}
	return m.Get(ctx, runs[0].ID)
}

func (m *memRuns) List(ctx context.Context, skip, limit int) ([]*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m *memRuns) Delete(ctx context.Context, id int64) error { return errors.New("not implemented") }

func (m *memRuns) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

// stepClock advances one second per call
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// stubClassifier answers from a table keyed by ticket id
type stubClassifier struct {
	byID  map[int64]domain.Classification
	delay func(id int64) time.Duration
}

func (s stubClassifier) Classify(ctx context.Context, t *tickets.Ticket) domain.Classification {
	if s.delay != nil {
		time.Sleep(s.delay(t.ID))
	}
	if c, ok := s.byID[t.ID]; ok {
		return c
	}
	return domain.ClassifyKeywords(t.Title, t.Description)
}

type fakeArchive struct {
	puts []int64
	err  error
}

func (f *fakeArchive) Put(ctx context.Context, res *domain.Result) (string, error) {
	f.puts = append(f.puts, res.Run.ID)
	return "runs/x.json", f.err
}
