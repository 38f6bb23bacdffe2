package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

func TestLoggingMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestHealthHandler(t *testing.T) {
	ok := CheckFunc(func(ctx context.Context) error { return nil })
	down := CheckFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"database": ok}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"database": down}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["database"].Message)

	rec = httptest.NewRecorder()
	ReadinessHandler(map[string]HealthChecker{"database": down}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}

func TestMetricsCounters(t *testing.T) {
	before := globalMetrics.AnalysisRunsFailed.Load()
	classified := globalMetrics.TicketsClassified.Load()

	RecordAnalysisRun(3, nil)
	RecordAnalysisRun(2, errors.New("boom"))
	RecordDegradedClassification()

	assert.Equal(t, before+1, globalMetrics.AnalysisRunsFailed.Load())
	assert.Equal(t, classified+3, globalMetrics.TicketsClassified.Load())

	rec := httptest.NewRecorder()
	MetricsMiddleware(http.HandlerFunc(MetricsHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var m map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	assert.Contains(t, m, "classifications_degraded")
	assert.Contains(t, m, "analysis_runs_total")
}

func TestTokenBucketRefills(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tb := newTokenBucket(2, 1, func() time.Time { return now })

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestRateLimitMiddlewarePerIP(t *testing.T) {
	h := RateLimitMiddleware(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1111").Code)
	limited := call("10.0.0.1:2222")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1111").Code)
}

func TestValidateTickets(t *testing.T) {
	in := []tickets.NewTicket{{Title: "  Login\x00 broken ", Description: "cannot\x07 sign in"}}
	require.NoError(t, ValidateTickets(in))
	assert.Equal(t, "Login broken", in[0].Title)
	assert.Equal(t, "cannot sign in", in[0].Description)

	cases := map[string][]tickets.NewTicket{
		"empty batch":       nil,
		"blank title":       {{Title: "  ", Description: "x"}},
		"blank description": {{Title: "x", Description: "\x00"}},
		"long title":        {{Title: strings.Repeat("a", MaxTitleLength+1), Description: "x"}},
		"long description":  {{Title: "x", Description: strings.Repeat("a", MaxDescriptionLength+1)}},
		"too many":          make([]tickets.NewTicket, MaxTicketsPerRequest+1),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateTickets(in), ErrInvalidInput)
		})
	}

	// multi-byte characters count once
	assert.NoError(t, ValidateTickets([]tickets.NewTicket{{Title: strings.Repeat("é", MaxTitleLength), Description: "x"}}))
}

func TestValidateTicketIDs(t *testing.T) {
	ids, err := ValidateTicketIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = ValidateTicketIDs([]int64{3, 1, 3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	_, err = ValidateTicketIDs([]int64{1, 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateTicketIDsCap(t *testing.T) {
	atCap := make([]int64, 0, 2*MaxTicketIDsPerRequest)
	for i := 1; i <= MaxTicketIDsPerRequest; i++ {
		atCap = append(atCap, int64(i), int64(i))
	}
	ids, err := ValidateTicketIDs(atCap)
	require.NoError(t, err, "duplicates do not count toward the cap")
	assert.Len(t, ids, MaxTicketIDsPerRequest)

	over := make([]int64, MaxTicketIDsPerRequest+1)
	for i := range over {
		over[i] = int64(i + 1)
	}
	_, err = ValidateTicketIDs(over)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
