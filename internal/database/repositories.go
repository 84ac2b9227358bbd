package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, userID uuid.UUID, id string, patch models.TaskPatch) (models.Task, error)
	SetStatus(ctx context.Context, userID uuid.UUID, id string, status models.TaskStatus) (models.Task, error)
	ToggleStar(ctx context.Context, userID uuid.UUID, id string) (models.Task, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
}

// CategoryRepositoryInterface defines the interface for category repository operations
type CategoryRepositoryInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	EnsureByName(ctx context.Context, userID uuid.UUID, name string) error
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, name, color string) (models.Category, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

// ReminderRepositoryInterface defines the interface for reminder repository operations
type ReminderRepositoryInterface interface {
	ListByTask(ctx context.Context, userID uuid.UUID, taskID string) ([]models.TaskReminder, error)
	Create(ctx context.Context, userID uuid.UUID, reminder *models.TaskReminder) error
	Delete(ctx context.Context, userID uuid.UUID, id string) error
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface     = (*TaskRepository)(nil)
	_ CategoryRepositoryInterface = (*CategoryRepository)(nil)
	_ ReminderRepositoryInterface = (*ReminderRepository)(nil)
	_ UserRepositoryInterface     = (*UserRepository)(nil)
)
