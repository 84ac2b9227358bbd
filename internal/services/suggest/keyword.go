package suggest

import (
	"context"
	"strings"
	"time"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// KeywordSuggester is the default, dependency-free suggester. It matches a
// fixed set of intent keywords against the subject and body and derives a
// coarse due date from the email's receipt time.
type KeywordSuggester struct{}

// NewKeywordSuggester creates a keyword suggester
func NewKeywordSuggester() *KeywordSuggester {
	return &KeywordSuggester{}
}

type keywordRule struct {
	keywords    []string
	titlePrefix string
	category    string
	dueAfter    time.Duration
}

// Rules are checked in order; the first match wins. Durations are deliberately
// coarse, the user adjusts the due date after accepting.
var keywordRules = []keywordRule{
	{
		keywords:    []string{"flight", "boarding", "itinerary", "check-in"},
		titlePrefix: "Check in for flight",
		category:    "Travel",
		dueAfter:    24 * time.Hour,
	},
	{
		keywords:    []string{"meeting", "invite", "calendar", "agenda"},
		titlePrefix: "Prepare for meeting",
		category:    "Work",
		dueAfter:    24 * time.Hour,
	},
	{
		keywords:    []string{"invoice", "payment due", "bill", "amount due"},
		titlePrefix: "Pay invoice",
		category:    "Finance",
		dueAfter:    72 * time.Hour,
	},
	{
		keywords:    []string{"deadline", "due by", "submit", "submission"},
		titlePrefix: "Follow up",
		category:    "Work",
		dueAfter:    72 * time.Hour,
	},
}

// SuggestTask matches the email against the keyword rules
func (s *KeywordSuggester) SuggestTask(_ context.Context, email models.Email) (*models.SuggestedTask, error) {
	haystack := strings.ToLower(email.Subject + " " + email.Body)

	for _, rule := range keywordRules {
		if !matchesAny(haystack, rule.keywords) {
			continue
		}

		due := email.ReceivedAt.Add(rule.dueAfter)
		return &models.SuggestedTask{
			ID:            "sg-" + email.ID,
			Title:         rule.titlePrefix + ": " + strings.TrimSpace(email.Subject),
			DueAt:         &due,
			Category:      rule.category,
			LinkedEmailID: email.ID,
			EmailSubject:  email.Subject,
		}, nil
	}

	return nil, nil
}

func matchesAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

var _ Suggester = (*KeywordSuggester)(nil)
