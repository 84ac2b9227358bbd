package models

import (
	"strings"
	"testing"
	"time"
)

func TestTaskStatus_Toggle(t *testing.T) {
	t.Parallel()

	if got := TaskStatusPending.Toggle(); got != TaskStatusDone {
		t.Errorf("Expected pending to toggle to done, got %s", got)
	}
	if got := TaskStatusDone.Toggle(); got != TaskStatusPending {
		t.Errorf("Expected done to toggle to pending, got %s", got)
	}
}

func TestNewLocalTaskID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewLocalTaskID(now)

	if !strings.HasPrefix(id, "task-") {
		t.Errorf("Expected id to start with 'task-', got %s", id)
	}
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		t.Fatalf("Expected task-<millis>-<random>, got %s", id)
	}
	if parts[1] != "1741944413000" {
		t.Errorf("Expected millis component %d, got %s", now.UnixMilli(), parts[1])
	}
	if parts[2] == "" {
		t.Error("Expected a random suffix")
	}

	other := NewLocalTaskID(now)
	if other == id {
		t.Error("Expected distinct ids for the same timestamp")
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	category := "Work"

	tests := []struct {
		name     string
		patch    TaskPatch
		validate func(*testing.T, *Task)
	}{
		{
			name:  "empty patch only bumps UpdatedAt",
			patch: TaskPatch{},
			validate: func(t *testing.T, task *Task) {
				if task.Title != "original" {
					t.Errorf("Expected title unchanged, got %s", task.Title)
				}
				if task.Status != TaskStatusPending {
					t.Errorf("Expected status unchanged, got %s", task.Status)
				}
			},
		},
		{
			name:  "title and status",
			patch: TaskPatch{Title: strPtr("renamed"), Status: statusPtr(TaskStatusDone)},
			validate: func(t *testing.T, task *Task) {
				if task.Title != "renamed" {
					t.Errorf("Expected title 'renamed', got %s", task.Title)
				}
				if task.Status != TaskStatusDone {
					t.Errorf("Expected status done, got %s", task.Status)
				}
			},
		},
		{
			name:  "set due date and category",
			patch: TaskPatch{DueAt: duePtr(&due), Category: catPtr(&category)},
			validate: func(t *testing.T, task *Task) {
				if task.DueAt == nil || !task.DueAt.Equal(due) {
					t.Errorf("Expected dueAt %v, got %v", due, task.DueAt)
				}
				if task.Category == nil || *task.Category != "Work" {
					t.Errorf("Expected category 'Work', got %v", task.Category)
				}
			},
		},
		{
			name:  "clear due date",
			patch: TaskPatch{DueAt: duePtr(nil)},
			validate: func(t *testing.T, task *Task) {
				if task.DueAt != nil {
					t.Errorf("Expected dueAt cleared, got %v", task.DueAt)
				}
			},
		},
		{
			name:  "folder conversion",
			patch: TaskPatch{IsFolder: boolPtr(true)},
			validate: func(t *testing.T, task *Task) {
				if !task.IsFolder {
					t.Error("Expected IsFolder true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			updated := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)
			task := &Task{
				ID:         "task-1",
				Title:      "original",
				Status:     TaskStatusPending,
				DueAt:      &due,
				InsertedAt: created,
				UpdatedAt:  created,
			}

			tt.patch.Apply(task, updated)

			if !task.UpdatedAt.Equal(updated) {
				t.Errorf("Expected UpdatedAt %v, got %v", updated, task.UpdatedAt)
			}
			if !task.InsertedAt.Equal(created) {
				t.Errorf("Expected InsertedAt untouched, got %v", task.InsertedAt)
			}
			tt.validate(t, task)
		})
	}
}

func TestTask_IsTopLevel(t *testing.T) {
	t.Parallel()

	parent := "task-parent"
	empty := ""

	tests := []struct {
		name     string
		parentID *string
		want     bool
	}{
		{"nil parent", nil, true},
		{"empty parent", &empty, true},
		{"has parent", &parent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task := &Task{ID: "task-1", ParentID: tt.parentID}
			if got := task.IsTopLevel(); got != tt.want {
				t.Errorf("Expected IsTopLevel()=%v, got %v", tt.want, got)
			}
		})
	}
}

func strPtr(s string) *string              { return &s }
func boolPtr(b bool) *bool                 { return &b }
func statusPtr(s TaskStatus) *TaskStatus   { return &s }
func duePtr(t *time.Time) **time.Time      { return &t }
func catPtr(s *string) **string            { return &s }
