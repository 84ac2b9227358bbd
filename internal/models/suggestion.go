package models

import "time"

// Email is a message surfaced by the (simulated) mailbox sync.
type Email struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	Sender     string    `json:"sender,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
}

// SuggestedTask is an ephemeral task candidate derived from an email. It is
// never persisted: accepting one creates a real Task and drops the
// suggestion, dismissing drops it with no side effect.
type SuggestedTask struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	DueAt         *time.Time `json:"dueAt,omitempty"`
	Category      string     `json:"category,omitempty"`
	LinkedEmailID string     `json:"linkedEmailId,omitempty"`
	EmailSubject  string     `json:"emailSubject,omitempty"`
}
