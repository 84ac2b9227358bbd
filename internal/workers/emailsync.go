package workers

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/sentinelhq/sentinel-api/internal/models"
	"github.com/sentinelhq/sentinel-api/internal/queue"
	"github.com/sentinelhq/sentinel-api/internal/services/suggest"
)

// SuggestionSink receives the suggestions a sync job produced. The Redis
// cache is the production implementation.
type SuggestionSink interface {
	Put(ctx context.Context, userID uuid.UUID, suggestions []models.SuggestedTask) error
	Get(ctx context.Context, userID uuid.UUID) ([]models.SuggestedTask, bool, error)
}

// EmailSyncWorker processes email sync jobs: it scans a user's mailbox, runs
// the suggester over each email and publishes the resulting batch.
type EmailSyncWorker struct {
	mailbox   suggest.MailboxSource
	suggester suggest.Suggester
	sink      SuggestionSink
}

// NewEmailSyncWorker creates a new email sync worker
func NewEmailSyncWorker(mailbox suggest.MailboxSource, suggester suggest.Suggester, sink SuggestionSink) *EmailSyncWorker {
	return &EmailSyncWorker{
		mailbox:   mailbox,
		suggester: suggester,
		sink:      sink,
	}
}

// ProcessEmailSyncJob scans the whole mailbox and replaces the user's
// suggestion batch
func (w *EmailSyncWorker) ProcessEmailSyncJob(ctx context.Context, job *queue.Job) error {
	emails, err := w.mailbox.ListEmails(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to list emails: %w", err)
	}

	suggestions, err := suggest.SuggestAll(ctx, w.suggester, emails)
	if err != nil {
		return fmt.Errorf("failed to derive suggestions: %w", err)
	}

	if err := w.sink.Put(ctx, job.UserID, suggestions); err != nil {
		return fmt.Errorf("failed to publish suggestions: %w", err)
	}

	log.Printf("Synced %d emails for user %s, produced %d suggestions", len(emails), job.UserID, len(suggestions))
	return nil
}

// ProcessEmailSuggestJob suggests a task for a single email and merges it
// into the user's existing batch
func (w *EmailSyncWorker) ProcessEmailSuggestJob(ctx context.Context, job *queue.Job) error {
	if job.EmailID == nil {
		return fmt.Errorf("email_id is required for email suggest job")
	}

	email, err := w.mailbox.GetEmail(ctx, job.UserID, *job.EmailID)
	if err != nil {
		return fmt.Errorf("failed to get email: %w", err)
	}

	suggestion, err := w.suggester.SuggestTask(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to derive suggestion: %w", err)
	}
	if suggestion == nil {
		log.Printf("Email %s for user %s is not actionable", *job.EmailID, job.UserID)
		return nil
	}

	existing, _, err := w.sink.Get(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to read existing suggestions: %w", err)
	}

	merged := make([]models.SuggestedTask, 0, len(existing)+1)
	for _, sg := range existing {
		if sg.ID != suggestion.ID {
			merged = append(merged, sg)
		}
	}
	merged = append(merged, *suggestion)

	if err := w.sink.Put(ctx, job.UserID, merged); err != nil {
		return fmt.Errorf("failed to publish suggestions: %w", err)
	}

	log.Printf("Suggested task from email %s for user %s", *job.EmailID, job.UserID)
	return nil
}

// ProcessJob processes a job based on its type
func (w *EmailSyncWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Respect NotBefore; ack and let the enqueuer's delayed retry bring it back
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	var err error
	switch job.Type {
	case queue.JobTypeEmailSync:
		err = w.ProcessEmailSyncJob(ctx, job)
	case queue.JobTypeEmailSuggest:
		err = w.ProcessEmailSuggestJob(ctx, job)
	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		return w.handleJobError(msg, job, err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError retries failed jobs until MaxRetries, then dead-letters them
func (w *EmailSyncWorker) handleJobError(msg queue.MessageInterface, job *queue.Job, err error) error {
	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("Job %s failed (attempt %d/%d): %v, will retry", job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	log.Printf("Job %s failed after %d retries: %v, sending to DLQ", job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
