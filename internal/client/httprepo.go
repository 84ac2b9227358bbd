package client

import (
	"context"
	"net/http"

	"github.com/sentinelhq/sentinel-api/internal/models"
	"github.com/sentinelhq/sentinel-api/internal/store"
)

// HTTPRepository adapts the REST task endpoints to the store's Repository
// interface. The store already tolerates failures here, so errors are passed
// through untranslated.
type HTTPRepository struct {
	client *Client
}

var _ store.Repository = (*HTTPRepository)(nil)

// NewHTTPRepository creates a task repository backed by the API client
func NewHTTPRepository(client *Client) *HTTPRepository {
	return &HTTPRepository{client: client}
}

// List fetches every task for the signed-in user
func (r *HTTPRepository) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.client.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create persists a task and returns the stored record with its server id
func (r *HTTPRepository) Create(ctx context.Context, task models.Task) (models.Task, error) {
	body := map[string]any{
		"title": task.Title,
	}
	if task.DueAt != nil {
		body["dueAt"] = task.DueAt
	}
	if task.Category != nil {
		body["category"] = task.Category
	}
	if task.ParentID != nil {
		body["parentId"] = task.ParentID
	}
	if task.IsFolder {
		body["isFolder"] = true
	}

	var created models.Task
	if err := r.client.do(ctx, http.MethodPost, "/api/tasks", body, &created); err != nil {
		return models.Task{}, err
	}
	return created, nil
}

// Update sends a partial update. Outer-set, inner-nil fields go out as
// explicit JSON nulls so the server clears them.
func (r *HTTPRepository) Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Status != nil {
		body["status"] = *patch.Status
	}
	if patch.DueAt != nil {
		body["dueAt"] = *patch.DueAt
	}
	if patch.IsStarred != nil {
		body["isStarred"] = *patch.IsStarred
	}
	if patch.Category != nil {
		body["category"] = *patch.Category
	}
	if patch.IsFolder != nil {
		body["isFolder"] = *patch.IsFolder
	}

	var updated models.Task
	if err := r.client.do(ctx, http.MethodPut, "/api/tasks/"+id, body, &updated); err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// SetStatus hits the status toggle endpoint. The server flips the stored
// status; the desired value is only used to detect drift.
func (r *HTTPRepository) SetStatus(ctx context.Context, id string, status models.TaskStatus) error {
	var updated models.Task
	if err := r.client.do(ctx, http.MethodPut, "/api/tasks/"+id+"/status", nil, &updated); err != nil {
		return err
	}
	if updated.Status != status {
		// Local and server state disagreed before the toggle; retry once to
		// converge rather than leave them inverted.
		return r.client.do(ctx, http.MethodPut, "/api/tasks/"+id+"/status", nil, nil)
	}
	return nil
}

// ToggleStar hits the star toggle endpoint
func (r *HTTPRepository) ToggleStar(ctx context.Context, id string) error {
	return r.client.do(ctx, http.MethodPut, "/api/tasks/"+id+"/star", nil, nil)
}

// Delete removes a task; the server cascades to its subtasks
func (r *HTTPRepository) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}
