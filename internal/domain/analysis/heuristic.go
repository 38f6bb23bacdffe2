package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

type categoryRule struct {
	category Category
	keywords []string
}

type priorityRule struct {
	priority Priority
	keywords []string
}

// Order matters: the first rule with a matching keyword wins.
var categoryRules = []categoryRule{
	{CategoryBilling, []string{"billing", "charge", "payment", "refund", "invoice", "subscription"}},
	{CategoryBug, []string{"bug", "crash", "error", "broken", "not working", "issue"}},
	{CategoryFeatureRequest, []string{"feature", "request", "add", "would like", "suggest"}},
	{CategoryAccount, []string{"login", "account", "access", "password", "authentication"}},
	{CategoryTechnical, []string{"technical", "server", "api", "integration"}},
}

var priorityRules = []priorityRule{
	{PriorityCritical, []string{"critical", "urgent", "immediately", "emergency", "data loss"}},
	{PriorityHigh, []string{"high", "important", "asap", "soon"}},
	{PriorityLow, []string{"low", "minor", "whenever"}},
}

// Heuristic classifies tickets by keyword matching on title and description.
// It is deterministic and never performs I/O.
type Heuristic struct{}

func (Heuristic) Classify(_ context.Context, t *tickets.Ticket) Classification {
	return ClassifyKeywords(t.Title, t.Description)
}

// ClassifyKeywords is the keyword classifier over raw title/description text
func ClassifyKeywords(title, description string) Classification {
	text := strings.ToLower(title) + " " + strings.ToLower(description)

	category := CategoryOther
	for _, r := range categoryRules {
		if containsAny(text, r.keywords) {
			category = r.category
			break
		}
	}

	priority := PriorityMedium
	for _, r := range priorityRules {
		if containsAny(text, r.keywords) {
			priority = r.priority
			break
		}
	}

	return Classification{
		Category: category,
		Priority: priority,
		Notes:    fmt.Sprintf("Auto-categorized as %s with %s priority based on keywords.", category, priority),
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
