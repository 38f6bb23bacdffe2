package analysis

import (
	"fmt"
	"strings"
)

// BuildSummary renders the aggregate line stored on a run, e.g.
//
//	Analyzed 3 ticket(s). Categories: bug(2), feature_request(1). Priorities: high(1), medium(2).
//
// Categories and priorities follow their enum order and zero counts are left out.
func BuildSummary(rows []*TicketAnalysis) string {
	if len(rows) == 0 {
		return "No tickets analyzed."
	}

	catCounts := make(map[Category]int)
	prioCounts := make(map[Priority]int)
	for _, r := range rows {
		catCounts[r.Category]++
		prioCounts[r.Priority]++
	}

	var cats []string
	for _, c := range Categories {
		if n := catCounts[c]; n > 0 {
			cats = append(cats, fmt.Sprintf("%s(%d)", c, n))
		}
	}
	var prios []string
	for _, p := range Priorities {
		if n := prioCounts[p]; n > 0 {
			prios = append(prios, fmt.Sprintf("%s(%d)", p, n))
		}
	}

	parts := []string{
		fmt.Sprintf("Analyzed %d ticket(s).", len(rows)),
		fmt.Sprintf("Categories: %s.", strings.Join(cats, ", ")),
		fmt.Sprintf("Priorities: %s.", strings.Join(prios, ", ")),
	}
	if urgent := prioCounts[PriorityCritical] + prioCounts[PriorityHigh]; urgent > 0 {
		parts = append(parts, fmt.Sprintf("%d ticket(s) require immediate attention.", urgent))
	}
	return strings.Join(parts, " ")
}
