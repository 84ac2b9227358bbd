package suggest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// MailboxSource provides the emails a sync job scans. Real mail integration
// sits behind this interface; the shipped implementation is a simulated
// inbox.
type MailboxSource interface {
	ListEmails(ctx context.Context, userID uuid.UUID) ([]models.Email, error)
	GetEmail(ctx context.Context, userID uuid.UUID, emailID string) (models.Email, error)
}

// SampleMailbox serves every user the same small simulated inbox with
// receipt times relative to now.
type SampleMailbox struct {
	now func() time.Time
}

// NewSampleMailbox creates a simulated mailbox
func NewSampleMailbox() *SampleMailbox {
	return &SampleMailbox{now: time.Now}
}

// ListEmails returns the simulated inbox
func (m *SampleMailbox) ListEmails(_ context.Context, _ uuid.UUID) ([]models.Email, error) {
	now := m.now()
	return []models.Email{
		{
			ID:         "email-1",
			Subject:    "Flight confirmation: SFO to JFK",
			Body:       "Your flight departs soon. Online check-in opens 24 hours before departure.",
			ReceivedAt: now.Add(-2 * time.Hour),
			Sender:     "no-reply@airline.example",
		},
		{
			ID:         "email-2",
			Subject:    "Invoice #2041 from Acme Hosting",
			Body:       "Your invoice is attached. Payment due within 7 days.",
			ReceivedAt: now.Add(-26 * time.Hour),
			Sender:     "billing@acme.example",
		},
		{
			ID:         "email-3",
			Subject:    "Quarterly planning meeting",
			Body:       "You have been invited to the quarterly planning meeting. Agenda attached.",
			ReceivedAt: now.Add(-5 * time.Hour),
			Sender:     "calendar@company.example",
		},
		{
			ID:         "email-4",
			Subject:    "Weekly newsletter",
			Body:       "Here is what happened this week in the world of gardening.",
			ReceivedAt: now.Add(-48 * time.Hour),
			Sender:     "news@digest.example",
		},
	}, nil
}

// GetEmail returns a single email from the simulated inbox
func (m *SampleMailbox) GetEmail(ctx context.Context, userID uuid.UUID, emailID string) (models.Email, error) {
	emails, err := m.ListEmails(ctx, userID)
	if err != nil {
		return models.Email{}, err
	}
	for _, email := range emails {
		if email.ID == emailID {
			return email, nil
		}
	}
	return models.Email{}, fmt.Errorf("email %s not found", emailID)
}

var _ MailboxSource = (*SampleMailbox)(nil)
