package suggest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

var received = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

func TestKeywordSuggester(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		subject      string
		body         string
		wantNil      bool
		wantCategory string
		wantDueAfter time.Duration
	}{
		{
			name:         "flight confirmation",
			subject:      "Flight confirmation: SFO to JFK",
			body:         "Online check-in opens 24 hours before departure.",
			wantCategory: "Travel",
			wantDueAfter: 24 * time.Hour,
		},
		{
			name:         "meeting invite",
			subject:      "Quarterly planning MEETING",
			body:         "Agenda attached.",
			wantCategory: "Work",
			wantDueAfter: 24 * time.Hour,
		},
		{
			name:         "invoice",
			subject:      "Invoice #2041",
			body:         "Payment due within 7 days.",
			wantCategory: "Finance",
			wantDueAfter: 72 * time.Hour,
		},
		{
			name:         "deadline in body only",
			subject:      "Paper review",
			body:         "The submission deadline is approaching.",
			wantCategory: "Work",
			wantDueAfter: 72 * time.Hour,
		},
		{
			name:    "newsletter yields nothing",
			subject: "Weekly newsletter",
			body:    "Here is what happened this week.",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			email := models.Email{
				ID:         "email-x",
				Subject:    tt.subject,
				Body:       tt.body,
				ReceivedAt: received,
			}
			got, err := NewKeywordSuggester().SuggestTask(context.Background(), email)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.wantNil {
				if got != nil {
					t.Fatalf("Expected no suggestion, got %v", got)
				}
				return
			}

			if got == nil {
				t.Fatal("Expected a suggestion, got nil")
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Expected category %s, got %s", tt.wantCategory, got.Category)
			}
			if got.DueAt == nil || !got.DueAt.Equal(received.Add(tt.wantDueAfter)) {
				t.Errorf("Expected due %v after receipt, got %v", tt.wantDueAfter, got.DueAt)
			}
			if got.LinkedEmailID != "email-x" || got.EmailSubject != tt.subject {
				t.Errorf("Expected email linkage, got %+v", got)
			}
			if got.ID != "sg-email-x" {
				t.Errorf("Expected deterministic suggestion id, got %s", got.ID)
			}
		})
	}
}

func TestSuggestAll(t *testing.T) {
	t.Parallel()

	mailbox := NewSampleMailbox()
	emails, err := mailbox.ListEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	suggestions, err := SuggestAll(context.Background(), NewKeywordSuggester(), emails)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The sample inbox has a flight, an invoice, a meeting and a
	// newsletter; only the newsletter is not actionable.
	if len(suggestions) != 3 {
		t.Fatalf("Expected 3 suggestions, got %d", len(suggestions))
	}
	seen := make(map[string]bool)
	for _, sg := range suggestions {
		seen[sg.Category] = true
	}
	for _, want := range []string{"Travel", "Finance", "Work"} {
		if !seen[want] {
			t.Errorf("Expected a %s suggestion, got %v", want, suggestions)
		}
	}
}

func TestSampleMailbox_GetEmail(t *testing.T) {
	t.Parallel()

	mailbox := NewSampleMailbox()
	email, err := mailbox.GetEmail(context.Background(), uuid.New(), "email-2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if email.ID != "email-2" {
		t.Errorf("Expected email-2, got %s", email.ID)
	}

	if _, err := mailbox.GetEmail(context.Background(), uuid.New(), "email-99"); err == nil {
		t.Error("Expected error for unknown email id")
	}
}
