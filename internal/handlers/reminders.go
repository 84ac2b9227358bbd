package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sentinelhq/sentinel-api/internal/database"
	"github.com/sentinelhq/sentinel-api/internal/middleware"
	"github.com/sentinelhq/sentinel-api/internal/models"
	"github.com/sentinelhq/sentinel-api/internal/validation"
)

// ReminderHandler handles task reminder requests
type ReminderHandler struct {
	reminders database.ReminderRepositoryInterface
	tasks     database.TaskRepositoryInterface
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminders database.ReminderRepositoryInterface, tasks database.TaskRepositoryInterface) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, tasks: tasks}
}

// RegisterTaskRoutes registers the per-task reminder routes on the tasks
// subrouter (list and create live under /tasks/{id}/reminders)
func (h *ReminderHandler) RegisterTaskRoutes(r *mux.Router) {
	r.HandleFunc("/{id}/reminders", h.ListReminders).Methods("GET")
	r.HandleFunc("/{id}/reminders", h.CreateReminder).Methods("POST")
}

// RegisterRoutes registers standalone reminder routes on the given router
// The router should already have the /reminders prefix
func (h *ReminderHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{id}", h.DeleteReminder).Methods("DELETE")
}

// CreateReminderRequest represents a create reminder request. ReminderTime is
// only honored for the custom type; the other types derive their time from
// the task's due date.
type CreateReminderRequest struct {
	Type         models.ReminderType `json:"type"`
	ReminderTime *time.Time          `json:"reminderTime,omitempty"`
}

// ListReminders lists the reminders attached to a task
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID := mux.Vars(r)["id"]
	ctx := r.Context()

	// Distinguish "no reminders" from "no such task"
	if _, err := h.tasks.GetByID(ctx, user.ID, taskID); errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	} else if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve task")
		return
	}

	reminders, err := h.reminders.ListByTask(ctx, user.ID, taskID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve reminders")
		return
	}
	if reminders == nil {
		reminders = []models.TaskReminder{}
	}

	respondJSON(w, http.StatusOK, reminders)
}

// CreateReminder attaches a reminder to a task
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID := mux.Vars(r)["id"]

	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.ValidateReminderType(string(req.Type)); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	task, err := h.tasks.GetByID(ctx, user.ID, taskID)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve task")
		return
	}

	reminderTime, err := models.DeriveReminderTime(req.Type, task.DueAt, req.ReminderTime)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	reminder := &models.TaskReminder{
		TaskID:       taskID,
		ReminderTime: reminderTime,
		Type:         req.Type,
		IsActive:     true,
	}

	if err := h.reminders.Create(ctx, user.ID, reminder); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create reminder")
		return
	}

	respondJSON(w, http.StatusCreated, reminder)
}

// DeleteReminder removes a reminder
func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id := mux.Vars(r)["id"]
	err := h.reminders.Delete(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Reminder not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete reminder")
		return
	}

	respondJSONMessage(w, http.StatusOK, nil, "Reminder deleted successfully")
}
