package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sentinelhq/sentinel-api/internal/database"
	"github.com/sentinelhq/sentinel-api/internal/middleware"
	"github.com/sentinelhq/sentinel-api/internal/models"
	"github.com/sentinelhq/sentinel-api/internal/validation"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	tasks      database.TaskRepositoryInterface
	categories database.CategoryRepositoryInterface
}

// NewTaskHandler creates a new task handler. Labeling a task with an unknown
// category name creates the category record inline.
func NewTaskHandler(tasks database.TaskRepositoryInterface, categories database.CategoryRepositoryInterface) *TaskHandler {
	return &TaskHandler{tasks: tasks, categories: categories}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix (e.g., from apiRouter.PathPrefix("/tasks"))
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/status", h.ToggleStatus).Methods("PUT")
	r.HandleFunc("/{id}/star", h.ToggleStar).Methods("PUT")
}

const (
	// MaxTaskTitleLength is the maximum length for task titles
	MaxTaskTitleLength = 1000
)

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title    string     `json:"title" validate:"required,min=1,max=1000"`
	DueAt    *time.Time `json:"dueAt,omitempty"`
	Category *string    `json:"category,omitempty"`
	ParentID *string    `json:"parentId,omitempty"`
	IsFolder bool       `json:"isFolder,omitempty"`
}

// UpdateTaskRequest represents a partial task update. DueAt and Category use
// raw JSON so an explicit null (clear the value) can be told apart from an
// absent field (leave it alone).
type UpdateTaskRequest struct {
	Title     *string            `json:"title,omitempty"`
	Status    *models.TaskStatus `json:"status,omitempty"`
	DueAt     json.RawMessage    `json:"dueAt,omitempty"`
	IsStarred *bool              `json:"isStarred,omitempty"`
	Category  json.RawMessage    `json:"category,omitempty"`
	IsFolder  *bool              `json:"isFolder,omitempty"`
}

// ListTasks lists all tasks for the authenticated user
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	tasks, err := h.tasks.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	ctx := r.Context()

	// Nesting is one level deep: a parent must itself be top-level
	if req.ParentID != nil && *req.ParentID != "" {
		parent, err := h.tasks.GetByID(ctx, user.ID, *req.ParentID)
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Parent task not found")
			return
		}
		if err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to look up parent task")
			return
		}
		if !parent.IsTopLevel() {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Subtasks cannot have subtasks of their own")
			return
		}
	}

	if req.Category != nil && *req.Category != "" {
		if err := h.ensureCategory(ctx, user.ID, *req.Category); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create category")
			return
		}
	}

	task := &models.Task{
		UserID:   user.ID,
		Title:    req.Title,
		Status:   models.TaskStatusPending,
		DueAt:    req.DueAt,
		Category: req.Category,
		ParentID: req.ParentID,
		IsFolder: req.IsFolder,
	}

	if err := h.tasks.Create(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id := mux.Vars(r)["id"]
	task, err := h.tasks.GetByID(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask applies a partial update to an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id := mux.Vars(r)["id"]

	var req UpdateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	patch, err := buildTaskPatch(req)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if patch.Category != nil && *patch.Category != nil {
		if err := h.ensureCategory(r.Context(), user.ID, **patch.Category); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create category")
			return
		}
	}

	task, err := h.tasks.Update(r.Context(), user.ID, id, patch)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// ToggleStatus flips a task between pending and done
func (h *TaskHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id := mux.Vars(r)["id"]
	ctx := r.Context()

	task, err := h.tasks.GetByID(ctx, user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve task")
		return
	}

	updated, err := h.tasks.SetStatus(ctx, user.ID, id, task.Status.Toggle())
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task status")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// ToggleStar flips a task's starred flag
func (h *TaskHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id := mux.Vars(r)["id"]
	task, err := h.tasks.ToggleStar(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to toggle star")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task along with its subtasks
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id := mux.Vars(r)["id"]
	err := h.tasks.Delete(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete task")
		return
	}

	respondJSONMessage(w, http.StatusOK, nil, "Task deleted successfully")
}

func (h *TaskHandler) ensureCategory(ctx context.Context, userID uuid.UUID, name string) error {
	if h.categories == nil {
		return nil
	}
	return h.categories.EnsureByName(ctx, userID, name)
}

// buildTaskPatch converts the wire-level update request into a repository
// patch, validating enum values and resolving explicit nulls.
func buildTaskPatch(req UpdateTaskRequest) (models.TaskPatch, error) {
	var patch models.TaskPatch

	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			return models.TaskPatch{}, errors.New("title cannot be empty after sanitization")
		}
		if len(sanitized) > MaxTaskTitleLength {
			return models.TaskPatch{}, fmt.Errorf("title exceeds maximum length of %d characters", MaxTaskTitleLength)
		}
		patch.Title = &sanitized
	}
	if req.Status != nil {
		if err := validation.ValidateTaskStatus(string(*req.Status)); err != nil {
			return models.TaskPatch{}, err
		}
		patch.Status = req.Status
	}
	if len(req.DueAt) > 0 {
		var dueAt *time.Time
		if string(req.DueAt) != "null" {
			var parsed time.Time
			if err := json.Unmarshal(req.DueAt, &parsed); err != nil {
				return models.TaskPatch{}, errors.New("dueAt must be an RFC 3339 timestamp or null")
			}
			dueAt = &parsed
		}
		patch.DueAt = &dueAt
	}
	if req.IsStarred != nil {
		patch.IsStarred = req.IsStarred
	}
	if len(req.Category) > 0 {
		var category *string
		if string(req.Category) != "null" {
			var parsed string
			if err := json.Unmarshal(req.Category, &parsed); err != nil {
				return models.TaskPatch{}, errors.New("category must be a string or null")
			}
			parsed = validation.SanitizeText(parsed)
			if parsed == "" {
				category = nil
			} else {
				category = &parsed
			}
		}
		patch.Category = &category
	}
	if req.IsFolder != nil {
		patch.IsFolder = req.IsFolder
	}

	return patch, nil
}
