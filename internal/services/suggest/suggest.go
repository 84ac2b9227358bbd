// Package suggest turns emails into task suggestions. The keyword suggester
// is the default; an OpenAI-backed one can be swapped in via configuration.
package suggest

import (
	"context"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// Suggester derives a task suggestion from a single email. A nil suggestion
// with a nil error means the email is not actionable.
type Suggester interface {
	SuggestTask(ctx context.Context, email models.Email) (*models.SuggestedTask, error)
}

// SuggestAll runs a suggester over a batch of emails, skipping the ones that
// yield nothing. Per-email errors abort the batch; callers retry the whole
// sync job.
func SuggestAll(ctx context.Context, s Suggester, emails []models.Email) ([]models.SuggestedTask, error) {
	suggestions := make([]models.SuggestedTask, 0, len(emails))
	for _, email := range emails {
		suggestion, err := s.SuggestTask(ctx, email)
		if err != nil {
			return nil, err
		}
		if suggestion != nil {
			suggestions = append(suggestions, *suggestion)
		}
	}
	return suggestions, nil
}
