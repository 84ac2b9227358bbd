package models

import (
	"errors"
	"time"
)

// ReminderType determines how a reminder's time is derived.
type ReminderType string

const (
	ReminderType1Hour    ReminderType = "1hour"
	ReminderType1Day     ReminderType = "1day"
	ReminderTypeCustom   ReminderType = "custom"
	ReminderTypeDeadline ReminderType = "deadline"
)

var (
	// ErrReminderNeedsDueDate is returned for relative reminder types on a
	// task without a due date.
	ErrReminderNeedsDueDate = errors.New("reminder type requires the task to have a due date")
	// ErrReminderNeedsTime is returned for custom reminders without an
	// explicit timestamp.
	ErrReminderNeedsTime = errors.New("custom reminder requires an explicit time")
	// ErrInvalidReminderType is returned for unknown reminder types.
	ErrInvalidReminderType = errors.New("invalid reminder type")
)

// TaskReminder is a reminder attached to a task. Stored as its own record;
// a task may carry any number of them. Firing reminders is out of scope,
// only the association is tracked.
type TaskReminder struct {
	ID           string       `json:"id"`
	TaskID       string       `json:"taskId"`
	ReminderTime time.Time    `json:"reminderTime"`
	Type         ReminderType `json:"type"`
	IsActive     bool         `json:"isActive"`
	CreatedAt    time.Time    `json:"created_at"`
}

// DeriveReminderTime resolves the reminder time for a type against the
// owning task's due date. Past times are accepted; rejecting them is a UI
// nicety, not an invariant.
func DeriveReminderTime(typ ReminderType, dueAt *time.Time, custom *time.Time) (time.Time, error) {
	switch typ {
	case ReminderType1Hour:
		if dueAt == nil {
			return time.Time{}, ErrReminderNeedsDueDate
		}
		return dueAt.Add(-time.Hour), nil
	case ReminderType1Day:
		if dueAt == nil {
			return time.Time{}, ErrReminderNeedsDueDate
		}
		return dueAt.Add(-24 * time.Hour), nil
	case ReminderTypeDeadline:
		if dueAt == nil {
			return time.Time{}, ErrReminderNeedsDueDate
		}
		return *dueAt, nil
	case ReminderTypeCustom:
		if custom == nil {
			return time.Time{}, ErrReminderNeedsTime
		}
		return *custom, nil
	default:
		return time.Time{}, ErrInvalidReminderType
	}
}
