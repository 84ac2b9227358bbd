package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// ReminderRepository handles task reminder database operations. Ownership is
// always checked through the task join; reminders have no user column.
type ReminderRepository struct {
	db *DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ListByTask retrieves the reminders attached to a task owned by the user
func (r *ReminderRepository) ListByTask(ctx context.Context, userID uuid.UUID, taskID string) ([]models.TaskReminder, error) {
	query := `
		SELECT tr.id, tr.task_id, tr.reminder_time, tr.reminder_type, tr.is_active, tr.created_at
		FROM task_reminders tr
		JOIN tasks t ON t.id = tr.task_id
		WHERE tr.task_id = $1 AND t.user_id = $2
		ORDER BY tr.reminder_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.TaskReminder
	for rows.Next() {
		var rem models.TaskReminder
		if err := rows.Scan(&rem.ID, &rem.TaskID, &rem.ReminderTime, &rem.Type, &rem.IsActive, &rem.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// Create attaches a reminder to a task owned by the user
func (r *ReminderRepository) Create(ctx context.Context, userID uuid.UUID, reminder *models.TaskReminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}

	query := `
		INSERT INTO task_reminders (id, task_id, reminder_time, reminder_type, is_active, created_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM tasks WHERE id = $2 AND user_id = $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		reminder.ID,
		reminder.TaskID,
		reminder.ReminderTime,
		reminder.Type,
		reminder.IsActive,
		time.Now(),
		userID,
	).Scan(&reminder.CreatedAt)
	// INSERT ... SELECT with a failed EXISTS returns no rows
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// Delete removes a reminder, checking ownership through the task join
func (r *ReminderRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	query := `
		DELETE FROM task_reminders tr
		USING tasks t
		WHERE tr.id = $1 AND t.id = tr.task_id AND t.user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
