package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// CategoryRepository handles category database operations
type CategoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByUser retrieves all categories for a user ordered by name
func (r *CategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	query := `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Create inserts a new category. An empty color falls back to the default.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.Color == "" {
		category.Color = models.DefaultCategoryColor
	}

	query := `
		INSERT INTO categories (id, user_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		category.ID,
		category.UserID,
		category.Name,
		category.Color,
		now,
		now,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// EnsureByName creates a category record with the default color if the user
// has no category of that name yet. Labeling a task with an unknown name
// creates the category inline.
func (r *CategoryRepository) EnsureByName(ctx context.Context, userID uuid.UUID, name string) error {
	query := `
		INSERT INTO categories (id, user_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, name) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), userID, name, models.DefaultCategoryColor, time.Now())
	if err != nil {
		return fmt.Errorf("failed to ensure category: %w", err)
	}
	return nil
}

// Update renames or recolors a category. Tasks referencing the old name are
// moved to the new one in the same transaction.
func (r *CategoryRepository) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, name, color string) (models.Category, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldName string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM categories WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&oldName)
	if err == sql.ErrNoRows {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to load category: %w", err)
	}

	var c models.Category
	err = tx.QueryRowContext(ctx, `
		UPDATE categories
		SET name = $3, color = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, color, created_at, updated_at
	`, id, userID, name, color, time.Now()).Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to update category: %w", err)
	}

	if oldName != name {
		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET category = $3 WHERE user_id = $1 AND category = $2`,
			userID, oldName, name,
		)
		if err != nil {
			return models.Category{}, fmt.Errorf("failed to move tasks to renamed category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Category{}, fmt.Errorf("failed to commit category update: %w", err)
	}
	return c, nil
}

// Delete removes a category and drops the label from its tasks, which fall
// back to the "No Category" bucket.
func (r *CategoryRepository) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM categories WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET category = NULL WHERE user_id = $1 AND category = $2`,
		userID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to detach tasks from category: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category delete: %w", err)
	}
	return nil
}
