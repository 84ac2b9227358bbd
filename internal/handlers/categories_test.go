package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sentinelhq/sentinel-api/internal/database"
	"github.com/sentinelhq/sentinel-api/internal/models"
)

// fakeCategoryRepo is an in-memory CategoryRepositoryInterface
type fakeCategoryRepo struct {
	categories map[uuid.UUID]models.Category
}

var _ database.CategoryRepositoryInterface = (*fakeCategoryRepo)(nil)

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[uuid.UUID]models.Category)}
}

func (f *fakeCategoryRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) Create(_ context.Context, category *models.Category) error {
	for _, c := range f.categories {
		if c.UserID == category.UserID && c.Name == category.Name {
			return database.ErrDuplicate
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.Color == "" {
		category.Color = models.DefaultCategoryColor
	}
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategoryRepo) EnsureByName(_ context.Context, userID uuid.UUID, name string) error {
	for _, c := range f.categories {
		if c.UserID == userID && c.Name == name {
			return nil
		}
	}
	id := uuid.New()
	now := time.Now()
	f.categories[id] = models.Category{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Color:     models.DefaultCategoryColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, userID uuid.UUID, id uuid.UUID, name, color string) (models.Category, error) {
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return models.Category{}, database.ErrNotFound
	}
	c.Name = name
	c.Color = color
	c.UpdatedAt = time.Now()
	f.categories[id] = c
	return c, nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, userID uuid.UUID, id uuid.UUID) error {
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return database.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func newCategoryRouter(repo database.CategoryRepositoryInterface) *mux.Router {
	r := mux.NewRouter()
	NewCategoryHandler(repo).RegisterRoutes(r.PathPrefix("/categories").Subrouter())
	return r
}

func TestCreateCategory(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeCategoryRepo()
	router := newCategoryRouter(repo)

	w := doRequest(t, router, user, http.MethodPost, "/categories", map[string]any{
		"name": "Travel",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var category models.Category
	decodeData(t, w, &category)
	if category.Name != "Travel" {
		t.Errorf("Expected name 'Travel', got '%s'", category.Name)
	}
	if category.Color != models.DefaultCategoryColor {
		t.Errorf("Expected default color %s, got %s", models.DefaultCategoryColor, category.Color)
	}
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeCategoryRepo()
	router := newCategoryRouter(repo)

	w := doRequest(t, router, user, http.MethodPost, "/categories", map[string]any{"name": "Work"})
	if w.Code != http.StatusCreated {
		t.Fatalf("setup: expected 201, got %d", w.Code)
	}

	w = doRequest(t, router, user, http.MethodPost, "/categories", map[string]any{"name": "Work"})
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", w.Code)
	}
}

func TestCreateCategory_InvalidColor(t *testing.T) {
	t.Parallel()

	user := testUser()
	router := newCategoryRouter(newFakeCategoryRepo())

	w := doRequest(t, router, user, http.MethodPost, "/categories", map[string]any{
		"name":  "Neon",
		"color": "not-a-color",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestUpdateCategory(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeCategoryRepo()
	category := &models.Category{UserID: user.ID, Name: "Old", Color: "#000000"}
	if err := repo.Create(context.Background(), category); err != nil {
		t.Fatalf("setup: %v", err)
	}
	router := newCategoryRouter(repo)

	w := doRequest(t, router, user, http.MethodPut, "/categories/"+category.ID.String(), map[string]any{
		"name":  "New",
		"color": "#FF0000",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Category
	decodeData(t, w, &updated)
	if updated.Name != "New" || updated.Color != "#FF0000" {
		t.Errorf("Expected renamed and recolored category, got %+v", updated)
	}
}

func TestUpdateCategory_NotFound(t *testing.T) {
	t.Parallel()

	user := testUser()
	router := newCategoryRouter(newFakeCategoryRepo())

	w := doRequest(t, router, user, http.MethodPut, "/categories/"+uuid.NewString(), map[string]any{"name": "X"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteCategory(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeCategoryRepo()
	category := &models.Category{UserID: user.ID, Name: "Doomed"}
	if err := repo.Create(context.Background(), category); err != nil {
		t.Fatalf("setup: %v", err)
	}
	router := newCategoryRouter(repo)

	w := doRequest(t, router, user, http.MethodDelete, "/categories/"+category.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(repo.categories) != 0 {
		t.Errorf("Expected category removed, %d remain", len(repo.categories))
	}
}

func TestListCategories_ScopedToUser(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeCategoryRepo()
	mine := &models.Category{UserID: user.ID, Name: "Mine"}
	theirs := &models.Category{UserID: uuid.New(), Name: "Theirs"}
	for _, c := range []*models.Category{mine, theirs} {
		if err := repo.Create(context.Background(), c); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	router := newCategoryRouter(repo)

	w := doRequest(t, router, user, http.MethodGet, "/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list []models.Category
	decodeData(t, w, &list)
	if len(list) != 1 || list[0].Name != "Mine" {
		t.Errorf("Expected only the user's category, got %+v", list)
	}
}
