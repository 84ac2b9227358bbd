package store

import (
	"context"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// Repository is the durable backing store for tasks. The store treats it as
// a best-effort durability layer: the in-memory collection is authoritative
// for the session, and repository failures never roll back local state.
//
// Implemented by client.HTTPRepository, which talks to the server's REST
// task endpoints.
type Repository interface {
	// List returns every task visible to the current credential.
	List(ctx context.Context) ([]models.Task, error)

	// Create persists a new task and returns the stored record, which may
	// carry a repository-assigned id.
	Create(ctx context.Context, task models.Task) (models.Task, error)

	// Update merges partial fields into an existing task.
	Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)

	// SetStatus is a dedicated status-only mutation; the wire protocol
	// exposes it as its own endpoint.
	SetStatus(ctx context.Context, id string, status models.TaskStatus) error

	// ToggleStar is a dedicated star-only mutation.
	ToggleStar(ctx context.Context, id string) error

	// Delete removes a task. Cascading to descendants happens on both
	// sides independently.
	Delete(ctx context.Context, id string) error
}
