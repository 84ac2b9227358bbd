package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sentinelhq/sentinel-api/internal/database"
	"github.com/sentinelhq/sentinel-api/internal/middleware"
	"github.com/sentinelhq/sentinel-api/internal/models"
	"github.com/sentinelhq/sentinel-api/internal/queue"
	"github.com/sentinelhq/sentinel-api/internal/services/suggest"
)

// SuggestionCache is the slice of the suggestion cache the handlers use.
// Satisfied by *suggest.Cache.
type SuggestionCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]models.SuggestedTask, bool, error)
	Put(ctx context.Context, userID uuid.UUID, suggestions []models.SuggestedTask) error
	Drop(ctx context.Context, userID uuid.UUID) error
}

// EmailHandler handles email listing, sync triggering, and the suggestion
// inbox derived from emails
type EmailHandler struct {
	mailbox suggest.MailboxSource
	cache   SuggestionCache
	jobs    queue.JobQueue
	tasks   database.TaskRepositoryInterface
}

// NewEmailHandler creates a new email handler
func NewEmailHandler(mailbox suggest.MailboxSource, cache SuggestionCache, jobs queue.JobQueue, tasks database.TaskRepositoryInterface) *EmailHandler {
	return &EmailHandler{mailbox: mailbox, cache: cache, jobs: jobs, tasks: tasks}
}

// RegisterEmailRoutes registers email routes on the given router
// The router should already have the /emails prefix
func (h *EmailHandler) RegisterEmailRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListEmails).Methods("GET")
	r.HandleFunc("/sync", h.TriggerSync).Methods("POST")
}

// RegisterSuggestionRoutes registers suggestion routes on the given router
// The router should already have the /suggestions prefix
func (h *EmailHandler) RegisterSuggestionRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSuggestions).Methods("GET")
	r.HandleFunc("/{id}/accept", h.AcceptSuggestion).Methods("POST")
	r.HandleFunc("/{id}", h.DismissSuggestion).Methods("DELETE")
}

// ListEmails lists the user's mailbox
func (h *EmailHandler) ListEmails(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	emails, err := h.mailbox.ListEmails(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve emails")
		return
	}
	if emails == nil {
		emails = []models.Email{}
	}

	respondJSON(w, http.StatusOK, emails)
}

// TriggerSync enqueues a background email scan for the user. The scan runs in
// the worker; suggestions land in the cache when it finishes.
func (h *EmailHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	job := queue.NewJob(queue.JobTypeEmailSync, user.ID, nil)
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to enqueue email sync")
		return
	}

	respondJSONMessage(w, http.StatusAccepted, map[string]string{"jobId": job.ID.String()}, "Email sync started")
}

// ListSuggestions returns the cached suggestions produced by the last sync.
// An expired or absent cache entry yields an empty list, not an error.
func (h *EmailHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	suggestions, found, err := h.cache.Get(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve suggestions")
		return
	}
	if !found || suggestions == nil {
		suggestions = []models.SuggestedTask{}
	}

	respondJSON(w, http.StatusOK, suggestions)
}

// AcceptSuggestion turns a cached suggestion into a real task and removes it
// from the suggestion inbox
func (h *EmailHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id := mux.Vars(r)["id"]
	ctx := r.Context()

	suggestions, found, err := h.cache.Get(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve suggestions")
		return
	}

	var accepted *models.SuggestedTask
	remaining := make([]models.SuggestedTask, 0, len(suggestions))
	if found {
		for i := range suggestions {
			if suggestions[i].ID == id {
				accepted = &suggestions[i]
				continue
			}
			remaining = append(remaining, suggestions[i])
		}
	}
	if accepted == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Suggestion not found or expired")
		return
	}

	var category *string
	if accepted.Category != "" {
		category = &accepted.Category
	}
	task := &models.Task{
		UserID:   user.ID,
		Title:    accepted.Title,
		Status:   models.TaskStatusPending,
		DueAt:    accepted.DueAt,
		Category: category,
	}
	if err := h.tasks.Create(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task from suggestion")
		return
	}

	// The task exists either way; a stale suggestion list is a cosmetic
	// problem, so cache errors are not surfaced.
	_ = h.storeRemaining(ctx, user.ID, remaining)

	respondJSON(w, http.StatusCreated, task)
}

// storeRemaining writes the suggestion list back, dropping the cache key
// entirely once the inbox is empty.
func (h *EmailHandler) storeRemaining(ctx context.Context, userID uuid.UUID, remaining []models.SuggestedTask) error {
	if len(remaining) == 0 {
		return h.cache.Drop(ctx, userID)
	}
	return h.cache.Put(ctx, userID, remaining)
}

// DismissSuggestion drops a suggestion without creating anything
func (h *EmailHandler) DismissSuggestion(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id := mux.Vars(r)["id"]
	ctx := r.Context()

	suggestions, found, err := h.cache.Get(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve suggestions")
		return
	}

	dropped := false
	remaining := make([]models.SuggestedTask, 0, len(suggestions))
	if found {
		for _, s := range suggestions {
			if s.ID == id {
				dropped = true
				continue
			}
			remaining = append(remaining, s)
		}
	}
	if !dropped {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Suggestion not found or expired")
		return
	}

	if err := h.storeRemaining(ctx, user.ID, remaining); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update suggestions")
		return
	}

	respondJSONMessage(w, http.StatusOK, nil, "Suggestion dismissed")
}
