package middleware

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/ticket-assist/internal/domain/tickets"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxTicketsPerRequest = 100
	// MaxTicketIDsPerRequest caps POST /api/analyze ticket_ids
	MaxTicketIDsPerRequest = 1000
)

// ErrInvalidInput marks request validation failures
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateTickets sanitizes the batch in place and checks sizes.
func ValidateTickets(in []tickets.NewTicket) error {
	if len(in) == 0 {
		return invalid("at least one ticket is required")
	}
	if len(in) > MaxTicketsPerRequest {
		return invalid("at most %d tickets per request", MaxTicketsPerRequest)
	}
	for i := range in {
		in[i].Title = SanitizeString(in[i].Title)
		in[i].Description = SanitizeString(in[i].Description)

		switch {
		case in[i].Title == "":
			return invalid("tickets[%d]: title is required", i)
		case utf8.RuneCountInString(in[i].Title) > MaxTitleLength:
			return invalid("tickets[%d]: title longer than %d characters", i, MaxTitleLength)
		case in[i].Description == "":
			return invalid("tickets[%d]: description is required", i)
		case utf8.RuneCountInString(in[i].Description) > MaxDescriptionLength:
			return invalid("tickets[%d]: description longer than %d characters", i, MaxDescriptionLength)
		}
	}
	return nil
}

// ValidateTicketIDs rejects non-positive ids and returns the ids with
// duplicates removed, first occurrence kept.
func ValidateTicketIDs(ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, invalid("ticket id %d must be positive", id)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > MaxTicketIDsPerRequest {
		return nil, invalid("at most %d distinct ticket ids per request", MaxTicketIDsPerRequest)
	}
	return out, nil
}
