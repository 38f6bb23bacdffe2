package analysis

import (
	"strings"
	"time"

	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

// Category enum
type Category string

const (
	CategoryBilling        Category = "billing"
	CategoryBug            Category = "bug"
	CategoryFeatureRequest Category = "feature_request"
	CategoryAccount        Category = "account"
	CategoryTechnical      Category = "technical"
	CategoryOther          Category = "other"
)

// Categories in their fixed precedence order
var Categories = []Category{
	CategoryBilling,
	CategoryBug,
	CategoryFeatureRequest,
	CategoryAccount,
	CategoryTechnical,
	CategoryOther,
}

// Priority enum
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Priorities from most to least urgent
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// ParseCategory normalizes s and reports whether it names a known category
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// ParsePriority normalizes s and reports whether it names a known priority
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Priorities {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Classification is the classifier output for one ticket
type Classification struct {
	Category Category `json:"category"`
	Priority Priority `json:"priority"`
	Notes    string   `json:"notes"`
}

// Run is one invocation of the analysis pipeline. Summary is set before the
// run becomes visible and never changes afterwards.
type Run struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Summary   *string   `json:"summary"`
}

// TicketAnalysis is the per-ticket row of a run
type TicketAnalysis struct {
	ID            int64           `json:"id"`
	AnalysisRunID int64           `json:"analysis_run_id"`
	TicketID      int64           `json:"ticket_id"`
	Category      Category        `json:"category"`
	Priority      Priority        `json:"priority"`
	Notes         string          `json:"notes"`
	Ticket        *tickets.Ticket `json:"ticket,omitempty"`
}

// Result is a run together with its rows, in processing order
type Result struct {
	Run      *Run              `json:"analysis_run"`
	Analyses []*TicketAnalysis `json:"ticket_analyses"`
}
