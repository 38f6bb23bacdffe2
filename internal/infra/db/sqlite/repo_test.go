package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTickets(t *testing.T, repo *TicketRepository, n int) []*tickets.Ticket {
	t.Helper()
	in := make([]tickets.NewTicket, n)
	for i := range in {
		in[i] = tickets.NewTicket{Title: "title", Description: "description"}
	}
	out, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	return out
}

func saveRun(t *testing.T, repo *AnalysisRepository, at time.Time, ids ...int64) *domain.Run {
	t.Helper()
	summary := "summary"
	run := &domain.Run{CreatedAt: at, Summary: &summary}
	rows := make([]*domain.TicketAnalysis, len(ids))
	for i, id := range ids {
		rows[i] = &domain.TicketAnalysis{TicketID: id, Category: domain.CategoryOther, Priority: domain.PriorityLow, Notes: "n"}
	}
	require.NoError(t, repo.Create(context.Background(), run, rows))
	return run
}

func countRows(t *testing.T, db *sql.DB, q string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(q, args...).Scan(&n))
	return n
}

func TestTicketRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(newTestDB(t))

	created := seedTickets(t, repo, 3)
	require.Len(t, created, 3)

	got, err := repo.Get(ctx, created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "title", got.Title)

	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, tickets.ErrNotFound)

	list, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, created[1].ID, list[0].ID)

	resolved, err := repo.Resolve(ctx, []int64{created[2].ID, 999, created[0].ID})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, created[0].ID, resolved[0].ID)

	all, err := repo.Resolve(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, repo.Delete(ctx, created[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, created[0].ID), tickets.ErrNotFound)
}

func TestTicketRepository_ResolveManyIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(newTestDB(t))
	created := seedTickets(t, repo, 2)

	// far more ids than SQLite can bind in one statement, most of them unknown
	ids := []int64{created[1].ID}
	for id := int64(1000); len(ids) < 39999; id++ {
		ids = append(ids, id)
	}
	ids = append(ids, created[0].ID, created[1].ID)

	got, err := repo.Resolve(ctx, ids)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, created[0].ID, got[0].ID)
	assert.Equal(t, created[1].ID, got[1].ID)
}

func TestAnalysisRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tk := seedTickets(t, NewTicketRepository(db), 2)
	repo := NewAnalysisRepository(db)

	run := saveRun(t, repo, time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC), tk[1].ID, tk[0].ID)
	require.NotZero(t, run.ID)

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.Run.ID)
	assert.True(t, run.CreatedAt.Equal(got.Run.CreatedAt))
	require.NotNil(t, got.Run.Summary)
	assert.Equal(t, "summary", *got.Run.Summary)

	require.Len(t, got.Analyses, 2)
	assert.Equal(t, tk[1].ID, got.Analyses[0].TicketID, "rows come back in insertion order")
	assert.Equal(t, domain.CategoryOther, got.Analyses[0].Category)
	assert.Equal(t, domain.PriorityLow, got.Analyses[0].Priority)
	require.NotNil(t, got.Analyses[0].Ticket)
	assert.Equal(t, tk[1].ID, got.Analyses[0].Ticket.ID)

	_, err = repo.Get(ctx, run.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisRepository_CreateIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tk := seedTickets(t, NewTicketRepository(db), 1)
	repo := NewAnalysisRepository(db)

	summary := "s"
	run := &domain.Run{CreatedAt: time.Now(), Summary: &summary}
	rows := []*domain.TicketAnalysis{
		{TicketID: tk[0].ID, Category: domain.CategoryBug, Priority: domain.PriorityHigh},
		{TicketID: 4242, Category: domain.CategoryBug, Priority: domain.PriorityHigh},
	}
	err := repo.Create(ctx, run, rows)
	require.Error(t, err, "unknown ticket violates the foreign key")

	assert.Zero(t, run.ID)
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM analysis_runs`))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM ticket_analysis`))

	_, err = repo.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisRepository_LatestAndListOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tk := seedTickets(t, NewTicketRepository(db), 1)
	repo := NewAnalysisRepository(db)

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	older := saveRun(t, repo, base, tk[0].ID)
	newest := saveRun(t, repo, base.Add(2*time.Second), tk[0].ID)
	// inserted last but with an earlier timestamp
	middle := saveRun(t, repo, base.Add(time.Second), tk[0].ID)

	got, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.Run.ID)

	tie := saveRun(t, repo, base.Add(2*time.Second), tk[0].ID)
	got, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, tie.ID, got.Run.ID, "equal timestamps resolve to the higher id")

	runs, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	ids := make([]int64, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []int64{tie.ID, newest.ID, middle.ID, older.ID}, ids)

	page, err := repo.List(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)
}

func TestCascadeDeleteTicket(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ticketRepo := NewTicketRepository(db)
	tk := seedTickets(t, ticketRepo, 2)
	repo := NewAnalysisRepository(db)

	r1 := saveRun(t, repo, time.Now(), tk[0].ID, tk[1].ID)
	r2 := saveRun(t, repo, time.Now(), tk[0].ID)

	require.NoError(t, ticketRepo.Delete(ctx, tk[0].ID))

	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM ticket_analysis WHERE ticket_id = ?`, tk[0].ID))
	got, err := repo.Get(ctx, r1.ID)
	require.NoError(t, err)
	require.Len(t, got.Analyses, 1)
	assert.Equal(t, tk[1].ID, got.Analyses[0].TicketID)

	got, err = repo.Get(ctx, r2.ID)
	require.NoError(t, err, "the run itself survives")
	assert.Empty(t, got.Analyses)
}

func TestCascadeDeleteRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ticketRepo := NewTicketRepository(db)
	tk := seedTickets(t, ticketRepo, 2)
	repo := NewAnalysisRepository(db)

	r1 := saveRun(t, repo, time.Now(), tk[0].ID, tk[1].ID)
	r2 := saveRun(t, repo, time.Now(), tk[1].ID)

	require.NoError(t, repo.Delete(ctx, r1.ID))
	assert.ErrorIs(t, repo.Delete(ctx, r1.ID), domain.ErrNotFound)

	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM ticket_analysis WHERE analysis_run_id = ?`, r1.ID))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM ticket_analysis WHERE analysis_run_id = ?`, r2.ID))
	assert.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM tickets`))
}
