package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/ticket-assist/internal/domain/analysis"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a support ticket analyst. Analyze tickets and provide structured responses in JSON format. You must produce one valid JSON object only (no markdown, no commentary).

Requirements:
- category must be one of: billing, bug, feature_request, account, technical, other.
- priority must be one of: low, medium, high, critical.
- notes is a brief explanation of your reasoning, one or two sentences.

Schema:
{
  "category": "<billing|bug|feature_request|account|technical|other>",
  "priority": "<low|medium|high|critical>",
  "notes": "<string>"
}`
}

// GetUserPrompt builds the user message for a single ticket.
func GetUserPrompt(title, description string) string {
	return fmt.Sprintf(`Analyze the following support ticket and provide:
1. Category (choose one: billing, bug, feature_request, account, technical, other)
2. Priority (choose one: low, medium, high, critical)
3. Brief notes explaining your reasoning

Ticket Title: %s
Ticket Description: %s

Respond in the following JSON format:
{
    "category": "category_name",
    "priority": "priority_level",
    "notes": "brief explanation"
}`, title, description)
}

// Reply is the JSON object the model is asked to return.
type Reply struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Notes    string `json:"notes"`
}

var fenced = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseReply decodes a model reply into a Classification. Replies wrapped in a
// markdown code fence are accepted; values outside the enums are rejected.
func ParseReply(content string) (analysis.Classification, error) {
	content = strings.TrimSpace(content)
	if m := fenced.FindStringSubmatch(content); m != nil {
		content = m[1]
	}

	var r Reply
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return analysis.Classification{}, fmt.Errorf("decode reply: %w", err)
	}
	category, ok := analysis.ParseCategory(r.Category)
	if !ok {
		return analysis.Classification{}, fmt.Errorf("invalid category %q", r.Category)
	}
	priority, ok := analysis.ParsePriority(r.Priority)
	if !ok {
		return analysis.Classification{}, fmt.Errorf("invalid priority %q", r.Priority)
	}
	return analysis.Classification{
		Category: category,
		Priority: priority,
		Notes:    strings.TrimSpace(r.Notes),
	}, nil
}
