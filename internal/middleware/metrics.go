package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics holds process wide counters
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64

	AnalysisRunsTotal       atomic.Uint64
	AnalysisRunsFailed      atomic.Uint64
	TicketsClassified       atomic.Uint64
	ClassificationsDegraded atomic.Uint64

	StartTime time.Time
}

var globalMetrics = &Metrics{StartTime: time.Now()}

// RecordAnalysisRun counts one RunAnalysis attempt
func RecordAnalysisRun(analyzed int, err error) {
	globalMetrics.AnalysisRunsTotal.Add(1)
	if err != nil {
		globalMetrics.AnalysisRunsFailed.Add(1)
		return
	}
	globalMetrics.TicketsClassified.Add(uint64(analyzed))
}

// RecordDegradedClassification counts a ticket that fell back to keywords
func RecordDegradedClassification() {
	globalMetrics.ClassificationsDegraded.Add(1)
}

func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"requests_total":           globalMetrics.RequestsTotal.Load(),
		"requests_in_progress":     globalMetrics.RequestsInProgress.Load(),
		"requests_success":         globalMetrics.RequestsSuccess.Load(),
		"requests_failed":          globalMetrics.RequestsFailed.Load(),
		"analysis_runs_total":      globalMetrics.AnalysisRunsTotal.Load(),
		"analysis_runs_failed":     globalMetrics.AnalysisRunsFailed.Load(),
		"tickets_classified":       globalMetrics.TicketsClassified.Load(),
		"classifications_degraded": globalMetrics.ClassificationsDegraded.Load(),
		"uptime_seconds":           time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalMetrics.RequestsTotal.Add(1)
		globalMetrics.RequestsInProgress.Add(1)
		defer globalMetrics.RequestsInProgress.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode < 400 {
			globalMetrics.RequestsSuccess.Add(1)
		} else {
			globalMetrics.RequestsFailed.Add(1)
		}
	})
}

func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
