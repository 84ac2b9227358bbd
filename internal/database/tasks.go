package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, title, status, due_at, is_starred, category, parent_id, is_folder, inserted_at, updated_at`

// ListByUser retrieves all tasks for a user, starred first and then due date
// ascending with undated tasks last. Clients re-sort anyway; this keeps raw
// API consumers sane.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		ORDER BY is_starred DESC, due_at ASC NULLS LAST, inserted_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetByID retrieves a single task owned by the user
func (r *TaskRepository) GetByID(ctx context.Context, userID uuid.UUID, id string) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, id, userID)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Create inserts a new task. Client-generated local ids are replaced with a
// server-assigned uuid; the stored record is written back into task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	task.ID = uuid.NewString()

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING inserted_at, updated_at
	`

	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Status,
		task.DueAt,
		task.IsStarred,
		task.Category,
		normalizeParentID(task.ParentID),
		task.IsFolder,
		now,
		now,
	).Scan(&task.InsertedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update applies a partial patch to a task owned by the user and returns the
// updated row.
func (r *TaskRepository) Update(ctx context.Context, userID uuid.UUID, id string, patch models.TaskPatch) (models.Task, error) {
	sets := []string{"updated_at = $3"}
	args := []any{id, userID, time.Now()}
	argIndex := 4

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.DueAt != nil {
		add("due_at", *patch.DueAt)
	}
	if patch.IsStarred != nil {
		add("is_starred", *patch.IsStarred)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.IsFolder != nil {
		add("is_folder", *patch.IsFolder)
	}

	query := `
		UPDATE tasks
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query, args...)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// SetStatus updates only the status column
func (r *TaskRepository) SetStatus(ctx context.Context, userID uuid.UUID, id string, status models.TaskStatus) (models.Task, error) {
	query := `
		UPDATE tasks
		SET status = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query, id, userID, status, time.Now())
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to set task status: %w", err)
	}
	return task, nil
}

// ToggleStar flips the starred flag in a single statement
func (r *TaskRepository) ToggleStar(ctx context.Context, userID uuid.UUID, id string) (models.Task, error) {
	query := `
		UPDATE tasks
		SET is_starred = NOT is_starred, updated_at = $3
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query, id, userID, time.Now())
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to toggle star: %w", err)
	}
	return task, nil
}

// Delete removes a task owned by the user. Descendants go with it through
// the parent_id foreign key cascade.
func (r *TaskRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
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

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (models.Task, error) {
	var task models.Task
	var dueAt sql.NullTime
	var category sql.NullString
	var parentID sql.NullString

	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Status,
		&dueAt,
		&task.IsStarred,
		&category,
		&parentID,
		&task.IsFolder,
		&task.InsertedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	if dueAt.Valid {
		task.DueAt = &dueAt.Time
	}
	if category.Valid {
		task.Category = &category.String
	}
	if parentID.Valid {
		task.ParentID = &parentID.String
	}
	return task, nil
}

// normalizeParentID stores empty parent ids as NULL so top-level checks stay
// a simple IS NULL.
func normalizeParentID(parentID *string) *string {
	if parentID == nil || *parentID == "" {
		return nil
	}
	return parentID
}
