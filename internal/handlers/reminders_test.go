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

// fakeReminderRepo is an in-memory ReminderRepositoryInterface. Ownership
// checks go through the supplied task repo, like the real one joins on tasks.
type fakeReminderRepo struct {
	tasks     *fakeTaskRepo
	reminders map[string]models.TaskReminder
}

var _ database.ReminderRepositoryInterface = (*fakeReminderRepo)(nil)

func newFakeReminderRepo(tasks *fakeTaskRepo) *fakeReminderRepo {
	return &fakeReminderRepo{tasks: tasks, reminders: make(map[string]models.TaskReminder)}
}

func (f *fakeReminderRepo) ListByTask(_ context.Context, userID uuid.UUID, taskID string) ([]models.TaskReminder, error) {
	if t, ok := f.tasks.tasks[taskID]; !ok || t.UserID != userID {
		return nil, nil
	}
	var out []models.TaskReminder
	for _, r := range f.reminders {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) Create(_ context.Context, userID uuid.UUID, reminder *models.TaskReminder) error {
	t, ok := f.tasks.tasks[reminder.TaskID]
	if !ok || t.UserID != userID {
		return database.ErrNotFound
	}
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	reminder.CreatedAt = time.Now()
	f.reminders[reminder.ID] = *reminder
	return nil
}

func (f *fakeReminderRepo) Delete(_ context.Context, userID uuid.UUID, id string) error {
	r, ok := f.reminders[id]
	if !ok {
		return database.ErrNotFound
	}
	if t, ok := f.tasks.tasks[r.TaskID]; !ok || t.UserID != userID {
		return database.ErrNotFound
	}
	delete(f.reminders, id)
	return nil
}

func newReminderRouter(tasks *fakeTaskRepo, reminders *fakeReminderRepo) *mux.Router {
	r := mux.NewRouter()
	h := NewReminderHandler(reminders, tasks)
	h.RegisterTaskRoutes(r.PathPrefix("/tasks").Subrouter())
	h.RegisterRoutes(r.PathPrefix("/reminders").Subrouter())
	return r
}

func TestCreateReminder_DerivesTimeFromDueDate(t *testing.T) {
	t.Parallel()

	user := testUser()
	tasks := newFakeTaskRepo()
	dueAt := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	task := tasks.add(models.Task{UserID: user.ID, Title: "dated", DueAt: &dueAt})
	reminders := newFakeReminderRepo(tasks)
	router := newReminderRouter(tasks, reminders)

	w := doRequest(t, router, user, http.MethodPost, "/tasks/"+task.ID+"/reminders", map[string]any{
		"type": "1day",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var reminder models.TaskReminder
	decodeData(t, w, &reminder)
	want := dueAt.Add(-24 * time.Hour)
	if !reminder.ReminderTime.Equal(want) {
		t.Errorf("Expected reminder time %v, got %v", want, reminder.ReminderTime)
	}
	if !reminder.IsActive {
		t.Error("Expected reminder to be active")
	}
}

func TestCreateReminder_RelativeTypeNeedsDueDate(t *testing.T) {
	t.Parallel()

	user := testUser()
	tasks := newFakeTaskRepo()
	task := tasks.add(models.Task{UserID: user.ID, Title: "undated"})
	router := newReminderRouter(tasks, newFakeReminderRepo(tasks))

	for _, typ := range []string{"1hour", "1day", "deadline"} {
		w := doRequest(t, router, user, http.MethodPost, "/tasks/"+task.ID+"/reminders", map[string]any{
			"type": typ,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("type %s: expected status 400 without due date, got %d", typ, w.Code)
		}
	}
}

func TestCreateReminder_CustomNeedsTime(t *testing.T) {
	t.Parallel()

	user := testUser()
	tasks := newFakeTaskRepo()
	task := tasks.add(models.Task{UserID: user.ID, Title: "t"})
	reminders := newFakeReminderRepo(tasks)
	router := newReminderRouter(tasks, reminders)

	w := doRequest(t, router, user, http.MethodPost, "/tasks/"+task.ID+"/reminders", map[string]any{
		"type": "custom",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}

	// A custom reminder works on a task with no due date at all
	at := time.Date(2026, 9, 5, 8, 30, 0, 0, time.UTC)
	w = doRequest(t, router, user, http.MethodPost, "/tasks/"+task.ID+"/reminders", map[string]any{
		"type":         "custom",
		"reminderTime": at,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var reminder models.TaskReminder
	decodeData(t, w, &reminder)
	if !reminder.ReminderTime.Equal(at) {
		t.Errorf("Expected reminder time %v, got %v", at, reminder.ReminderTime)
	}
}

func TestCreateReminder_InvalidType(t *testing.T) {
	t.Parallel()

	user := testUser()
	tasks := newFakeTaskRepo()
	task := tasks.add(models.Task{UserID: user.ID, Title: "t"})
	router := newReminderRouter(tasks, newFakeReminderRepo(tasks))

	w := doRequest(t, router, user, http.MethodPost, "/tasks/"+task.ID+"/reminders", map[string]any{
		"type": "fortnightly",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestListReminders(t *testing.T) {
	t.Parallel()

	user := testUser()
	tasks := newFakeTaskRepo()
	dueAt := time.Now().Add(48 * time.Hour)
	task := tasks.add(models.Task{UserID: user.ID, Title: "t", DueAt: &dueAt})
	reminders := newFakeReminderRepo(tasks)
	router := newReminderRouter(tasks, reminders)

	for _, typ := range []string{"1hour", "1day"} {
		w := doRequest(t, router, user, http.MethodPost, "/tasks/"+task.ID+"/reminders", map[string]any{"type": typ})
		if w.Code != http.StatusCreated {
			t.Fatalf("setup: expected 201, got %d", w.Code)
		}
	}

	w := doRequest(t, router, user, http.MethodGet, "/tasks/"+task.ID+"/reminders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list []models.TaskReminder
	decodeData(t, w, &list)
	if len(list) != 2 {
		t.Errorf("Expected 2 reminders, got %d", len(list))
	}
}

func TestListReminders_TaskNotFound(t *testing.T) {
	t.Parallel()

	user := testUser()
	tasks := newFakeTaskRepo()
	router := newReminderRouter(tasks, newFakeReminderRepo(tasks))

	w := doRequest(t, router, user, http.MethodGet, "/tasks/missing/reminders", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteReminder(t *testing.T) {
	t.Parallel()

	user := testUser()
	tasks := newFakeTaskRepo()
	task := tasks.add(models.Task{UserID: user.ID, Title: "t"})
	reminders := newFakeReminderRepo(tasks)
	rem := &models.TaskReminder{TaskID: task.ID, ReminderTime: time.Now(), Type: models.ReminderTypeCustom, IsActive: true}
	if err := reminders.Create(context.Background(), user.ID, rem); err != nil {
		t.Fatalf("setup: %v", err)
	}
	router := newReminderRouter(tasks, reminders)

	w := doRequest(t, router, user, http.MethodDelete, "/reminders/"+rem.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(reminders.reminders) != 0 {
		t.Errorf("Expected reminder removed, %d remain", len(reminders.reminders))
	}

	w = doRequest(t, router, user, http.MethodDelete, "/reminders/"+rem.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 on second delete, got %d", w.Code)
	}
}
