package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/ticket-assist/internal/application/analysis"
	apptickets "github.com/bryanwahyu/ticket-assist/internal/application/tickets"
	"github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
	"github.com/bryanwahyu/ticket-assist/internal/middleware"
)

const Version = "1.0.0"

// maxBodyBytes covers 100 tickets at the maximum field sizes
const maxBodyBytes = 1 << 20

type Options struct {
	Tickets  *apptickets.Service
	Analysis *appanalysis.Service

	// Checkers back /health and /health/ready
	Checkers map[string]middleware.HealthChecker

	CORSOrigins []string
	// AnalyzePerMinute limits POST /api/analyze per client IP; 0 disables it
	AnalyzePerMinute int
}

type Router struct {
	tickets  *apptickets.Service
	analysis *appanalysis.Service
}

func NewRouter(opts Options) http.Handler {
	r := &Router{tickets: opts.Tickets, analysis: opts.Analysis}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "AI Support Ticket Assist API",
			"version": Version,
			"status":  "running",
		})
	})
	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/tickets", r.wrap(r.handleCreateTickets))
		rt.Get("/tickets", r.wrap(r.handleListTickets))
		rt.Get("/tickets/{id}", r.wrap(r.handleGetTicket))
		rt.Delete("/tickets/{id}", r.wrap(r.handleDeleteTicket))

		rt.Group(func(g chi.Router) {
			if opts.AnalyzePerMinute > 0 {
				g.Use(middleware.RateLimitMiddleware(opts.AnalyzePerMinute))
			}
			g.Post("/analyze", r.wrap(r.handleAnalyze))
		})

		rt.Get("/analysis", r.wrap(r.handleListRuns))
		rt.Get("/analysis/latest", r.wrap(r.handleLatest))
		rt.Get("/analysis/{id}", r.wrap(r.handleGetRun))
		rt.Delete("/analysis/{id}", r.wrap(r.handleDeleteRun))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, tickets.ErrNotFound):
			writeDetail(w, http.StatusNotFound, "Ticket not found")
		case errors.Is(err, analysis.ErrNotFound):
			writeDetail(w, http.StatusNotFound, "Analysis run not found")
		case errors.Is(err, analysis.ErrEmptyInput):
			writeDetail(w, http.StatusBadRequest, "No tickets to analyze")
		case errors.Is(err, middleware.ErrInvalidInput):
			writeDetail(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("request_id=%s method=%s path=%s err=%v",
				middleware.RequestID(req.Context()), req.Method, req.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// POST /api/tickets
// Body: {"tickets":[{"title":"...","description":"..."}]}
func (r *Router) handleCreateTickets(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Tickets []tickets.NewTicket `json:"tickets"`
	}
	if err := decode(w, req, &body); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", middleware.ErrInvalidInput)
		}
		return err
	}
	if err := middleware.ValidateTickets(body.Tickets); err != nil {
		return err
	}

	out, err := r.tickets.Create(req.Context(), body.Tickets)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{"tickets": out})
	return nil
}

// GET /api/tickets?skip=&limit=
func (r *Router) handleListTickets(w http.ResponseWriter, req *http.Request) error {
	skip, limit := paging(req)
	list, err := r.tickets.List(req.Context(), skip, limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func (r *Router) handleGetTicket(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	t, err := r.tickets.Get(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, t)
	return nil
}

func (r *Router) handleDeleteTicket(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	if err := r.tickets.Delete(req.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /api/analyze
// Body (optional): {"ticket_ids":[1,2,3]}; no ids means every ticket.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		TicketIDs []int64 `json:"ticket_ids"`
	}
	if err := decode(w, req, &body); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	ids, err := middleware.ValidateTicketIDs(body.TicketIDs)
	if err != nil {
		return err
	}

	res, err := r.analysis.RunAnalysis(req.Context(), ids)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// GET /api/analysis?skip=&limit=
func (r *Router) handleListRuns(w http.ResponseWriter, req *http.Request) error {
	skip, limit := paging(req)
	runs, err := r.analysis.List(req.Context(), skip, limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, runs)
	return nil
}

// GET /api/analysis/latest
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	res, err := r.analysis.Latest(req.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (r *Router) handleGetRun(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	res, err := r.analysis.Get(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (r *Router) handleDeleteRun(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	if err := r.analysis.Delete(req.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// decode reads a JSON body; an empty body comes back as io.EOF
func decode(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body: %v", middleware.ErrInvalidInput, err)
	}
	return nil
}

func pathID(req *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", middleware.ErrInvalidInput)
	}
	return id, nil
}

// paging parses skip and limit; the services clamp them
func paging(req *http.Request) (skip, limit int) {
	q := req.URL.Query()
	skip, _ = strconv.Atoi(q.Get("skip"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	return skip, limit
}

// writeJSON sends the status line first, so an encode failure (usually a
// gone client) can only be logged
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response status=%d err=%v", code, err)
	}
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
