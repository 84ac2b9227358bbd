package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
)

// Toggle returns the opposite status. The status machine has exactly two
// states and one bidirectional transition.
func (s TaskStatus) Toggle() TaskStatus {
	if s == TaskStatusPending {
		return TaskStatusDone
	}
	return TaskStatusPending
}

// Task is the central entity: a single todo item, optionally nested one level
// under a parent task and optionally labeled with a free-text category name.
type Task struct {
	ID         string     `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Title      string     `json:"title"`
	Status     TaskStatus `json:"status"`
	DueAt      *time.Time `json:"dueAt,omitempty"`
	IsStarred  bool       `json:"isStarred"`
	Category   *string    `json:"category,omitempty"`
	ParentID   *string    `json:"parentId,omitempty"`
	IsFolder   bool       `json:"isFolder,omitempty"`
	InsertedAt time.Time  `json:"inserted_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsTopLevel reports whether the task participates in section/category
// grouping. Tasks with a parent are rendered nested under it instead.
func (t *Task) IsTopLevel() bool {
	return t.ParentID == nil || *t.ParentID == ""
}

// NewLocalTaskID generates a client-side task id of the form
// task-<millis>-<random>. Server-created tasks get a UUID instead; both are
// opaque strings to everything but the generator.
func NewLocalTaskID(now time.Time) string {
	return fmt.Sprintf("task-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// TaskPatch is a partial update to a task. Nil fields are left untouched.
// DueAt and Category distinguish "not present" (outer nil) from "clear the
// value" (pointer to nil).
type TaskPatch struct {
	Title     *string
	Status    *TaskStatus
	DueAt     **time.Time
	IsStarred *bool
	Category  **string
	IsFolder  *bool
}

// Apply merges the patch into the task and stamps UpdatedAt.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueAt != nil {
		t.DueAt = *p.DueAt
	}
	if p.IsStarred != nil {
		t.IsStarred = *p.IsStarred
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.IsFolder != nil {
		t.IsFolder = *p.IsFolder
	}
	t.UpdatedAt = now
}
