package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCategoryColor is used when a category is created without a color,
// including inline creation while moving a task.
const DefaultCategoryColor = "#3B82F6"

// NoCategoryLabel is the bucket name for tasks without a category.
const NoCategoryLabel = "No Category"

// Category is a named, colored label. Tasks reference categories by name on
// the wire (legacy shape); the record itself is id-based and user-scoped.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
