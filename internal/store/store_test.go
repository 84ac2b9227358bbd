package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sentinelhq/sentinel-api/internal/models"
	"github.com/sentinelhq/sentinel-api/internal/rules"
)

var testNow = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

// fakeRepo is a configurable in-memory Repository double. Setting an error
// field makes the corresponding call fail; setting block makes Create wait
// until the channel is closed.
type fakeRepo struct {
	mu sync.Mutex

	listTasks []models.Task
	listErr   error

	createErr error
	updateErr error
	statusErr error
	starErr   error
	deleteErr error

	remoteIDs map[string]string
	block     chan struct{}

	creates     []models.Task
	updates     []string
	statusCalls []models.TaskStatus
	starCalls   []string
	deletes     []string
}

func (r *fakeRepo) List(context.Context) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Task, len(r.listTasks))
	copy(out, r.listTasks)
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, task models.Task) (models.Task, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return models.Task{}, r.createErr
	}
	r.creates = append(r.creates, task)
	if id, ok := r.remoteIDs[task.Title]; ok {
		task.ID = id
	}
	return task, nil
}

func (r *fakeRepo) Update(_ context.Context, id string, _ models.TaskPatch) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return models.Task{}, r.updateErr
	}
	r.updates = append(r.updates, id)
	return models.Task{ID: id}, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id string, status models.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusErr != nil {
		return r.statusErr
	}
	r.statusCalls = append(r.statusCalls, status)
	return nil
}

func (r *fakeRepo) ToggleStar(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.starErr != nil {
		return r.starErr
	}
	r.starCalls = append(r.starCalls, id)
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletes = append(r.deletes, id)
	return nil
}

func newTestStore(repo Repository) *TaskStore {
	return NewTaskStore(repo, nil, WithClock(func() time.Time { return testNow }))
}

func TestAddTask_VisibleBeforeRepositoryResponds(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{block: make(chan struct{})}
	s := newTestStore(repo)

	task, err := s.AddTask("buy milk", nil, nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The repository has not answered yet; the task must already be
	// visible with a pending sync state.
	if got := s.Tasks(); len(got) != 1 || got[0].Title != "buy milk" {
		t.Fatalf("Expected task visible immediately, got %v", got)
	}
	if got := s.SyncState(task.ID); got != SyncStatePending {
		t.Errorf("Expected sync state pending, got %s", got)
	}

	close(repo.block)
	s.Flush()

	if got := s.SyncState(task.ID); got != SyncStateSynced {
		t.Errorf("Expected sync state synced after flush, got %s", got)
	}
}

func TestAddTask_EmptyTitle(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := s.AddTask(title, nil, nil, nil); !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("Expected ErrEmptyTitle for %q, got %v", title, err)
		}
	}
	if got := s.Tasks(); len(got) != 0 {
		t.Errorf("Expected no tasks stored, got %d", len(got))
	}
}

func TestAddTask_RepositoryFailureKeepsLocalTask(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{createErr: errors.New("boom")}
	s := newTestStore(repo)

	task, err := s.AddTask("survives", nil, nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s.Flush()

	if got := s.Tasks(); len(got) != 1 || got[0].ID != task.ID {
		t.Fatalf("Expected task retained after failed sync, got %v", got)
	}
	if got := s.SyncState(task.ID); got != SyncStateFailed {
		t.Errorf("Expected sync state failed, got %s", got)
	}
}

func TestAddTask_AdoptsRepositoryID(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		remoteIDs: map[string]string{"parent": "srv-1", "child": "srv-2"},
		block:     make(chan struct{}),
	}
	s := newTestStore(repo)

	parent, err := s.AddTask("parent", nil, nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.AddTask("child", nil, nil, &parent.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.AddTaskReminder(parent.ID, models.ReminderTypeCustom, &testNow); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	close(repo.block)
	s.Flush()

	adopted, ok := s.Task("srv-1")
	if !ok || adopted.Title != "parent" {
		t.Fatalf("Expected parent under repository id, got %v (found=%v)", adopted, ok)
	}
	if _, ok := s.Task(parent.ID); ok {
		t.Error("Expected local id to be retired")
	}
	if got := s.Subtasks("srv-1"); len(got) != 1 || got[0].Title != "child" {
		t.Errorf("Expected child re-linked to repository id, got %v", got)
	}
	if got := s.TaskReminders("srv-1"); len(got) != 1 {
		t.Errorf("Expected reminder re-linked to repository id, got %d", len(got))
	}
	if got := s.SyncState("srv-1"); got != SyncStateSynced {
		t.Errorf("Expected sync state synced, got %s", got)
	}
}

func TestAddTask_SingleLevelNesting(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	parent, _ := s.AddTask("parent", nil, nil, nil)
	child, err := s.AddTask("child", nil, nil, &parent.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := s.AddTask("grandchild", nil, nil, &child.ID); !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("Expected ErrNestingTooDeep, got %v", err)
	}
}

func TestGuestMode(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	task, err := s.AddTask("offline", nil, nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := s.SyncState(task.ID); got != SyncStateLocal {
		t.Errorf("Expected sync state local, got %s", got)
	}
	if _, err := s.ToggleDone(task.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := s.FetchTasks(context.Background()); err != nil {
		t.Fatalf("Expected fetch to no-op in guest mode, got %v", err)
	}
	s.Flush()
}

func TestToggleDone(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	s := newTestStore(repo)
	task, _ := s.AddTask("flip me", nil, nil, nil)

	toggled, err := s.ToggleDone(task.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if toggled.Status != models.TaskStatusDone {
		t.Errorf("Expected status done, got %s", toggled.Status)
	}

	back, _ := s.ToggleDone(task.ID)
	if back.Status != models.TaskStatusPending {
		t.Errorf("Expected status pending, got %s", back.Status)
	}
	s.Flush()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.statusCalls) != 2 {
		t.Errorf("Expected 2 status syncs, got %d", len(repo.statusCalls))
	}
}

func TestToggleDone_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	if _, err := s.ToggleDone("task-missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
}

func TestToggleStar_FailureKeepsLocalFlag(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{starErr: errors.New("boom")}
	s := newTestStore(repo)
	task, _ := s.AddTask("star me", nil, nil, nil)
	s.Flush()

	starred, err := s.ToggleStar(task.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !starred.IsStarred {
		t.Error("Expected task starred")
	}
	s.Flush()

	// The failed sync never rolls the optimistic flip back.
	got, _ := s.Task(task.ID)
	if !got.IsStarred {
		t.Error("Expected star retained after failed sync")
	}
	if state := s.SyncState(task.ID); state != SyncStateFailed {
		t.Errorf("Expected sync state failed, got %s", state)
	}
}

func TestMoveToCategory(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	task, _ := s.AddTask("errand", nil, nil, nil)

	work := "Work"
	moved, err := s.MoveToCategory(task.ID, &work)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if moved.Category == nil || *moved.Category != "Work" {
		t.Errorf("Expected category Work, got %v", moved.Category)
	}

	cleared, err := s.MoveToCategory(task.ID, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cleared.Category != nil {
		t.Errorf("Expected category cleared, got %v", cleared.Category)
	}
}

func TestConvertTaskToFolderAndBack(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	task, _ := s.AddTask("project", nil, nil, nil)

	folder, err := s.ConvertTaskToFolder(task.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !folder.IsFolder {
		t.Error("Expected IsFolder true")
	}
	if folder.Title != "project" {
		t.Errorf("Expected title preserved, got %s", folder.Title)
	}

	back, err := s.ConvertFolderToTask(task.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if back.IsFolder {
		t.Error("Expected IsFolder false")
	}
}

func TestDeleteTask_CascadesToDescendants(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	s := newTestStore(repo)

	parent, _ := s.AddTask("parent", nil, nil, nil)
	childA, _ := s.AddTask("child a", nil, nil, &parent.ID)
	if _, err := s.AddTask("child b", nil, nil, &parent.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	bystander, _ := s.AddTask("bystander", nil, nil, nil)
	if _, err := s.AddTaskReminder(childA.ID, models.ReminderTypeCustom, &testNow); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s.Flush()

	if err := s.DeleteTask(parent.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s.Flush()

	got := s.Tasks()
	if len(got) != 1 || got[0].ID != bystander.ID {
		t.Fatalf("Expected only bystander left, got %v", got)
	}
	if got := s.TaskReminders(childA.ID); len(got) != 0 {
		t.Errorf("Expected child reminders removed, got %d", len(got))
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.deletes) != 1 || repo.deletes[0] != parent.ID {
		t.Errorf("Expected single delete for root id, got %v", repo.deletes)
	}
}

func TestDeleteTask_RepositoryFailureKeepsLocalDeletion(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{deleteErr: errors.New("boom")}
	s := newTestStore(repo)
	task, _ := s.AddTask("doomed", nil, nil, nil)
	s.Flush()

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s.Flush()

	if got := s.Tasks(); len(got) != 0 {
		t.Errorf("Expected task gone locally despite sync failure, got %v", got)
	}
}

func TestFetchTasks_ReplacesCollection(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{listTasks: []models.Task{
		{ID: "srv-1", Title: "from server", Status: models.TaskStatusPending},
		{ID: "srv-2", Title: "also from server", Status: models.TaskStatusDone},
	}}
	s := newTestStore(repo)

	if err := s.FetchTasks(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := s.Tasks(); len(got) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(got))
	}
	if got := s.SyncState("srv-1"); got != SyncStateSynced {
		t.Errorf("Expected fetched task synced, got %s", got)
	}
}

func TestFetchTasks_FailureRetainsStaleCollection(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{listTasks: []models.Task{{ID: "srv-1", Title: "cached"}}}
	s := newTestStore(repo)
	if err := s.FetchTasks(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	repo.mu.Lock()
	repo.listErr = errors.New("network down")
	repo.mu.Unlock()

	if err := s.FetchTasks(context.Background()); err == nil {
		t.Fatal("Expected fetch error to be surfaced")
	}
	if got := s.Tasks(); len(got) != 1 || got[0].ID != "srv-1" {
		t.Errorf("Expected stale collection retained, got %v", got)
	}
}

func TestReorderTasks(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	a, _ := s.AddTask("a", nil, nil, nil)
	b, _ := s.AddTask("b", nil, nil, nil)
	c, _ := s.AddTask("c", nil, nil, nil)

	if err := s.ReorderTasks(0, 2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got := s.Tasks()
	want := []string{b.ID, c.ID, a.ID}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}

	if err := s.ReorderTasks(0, 5); err == nil {
		t.Error("Expected out-of-range error")
	}
	if err := s.ReorderTasks(1, 1); err != nil {
		t.Errorf("Expected same-index reorder to no-op, got %v", err)
	}
}

func TestSectionView_ExcludesDoneAndSubtasks(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	due := testNow.Add(12 * time.Hour)
	pending, _ := s.AddTask("pending", &due, nil, nil)
	done, _ := s.AddTask("done", &due, nil, nil)
	if _, err := s.ToggleDone(done.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.AddTask("sub", &due, nil, &pending.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	view := s.SectionView()
	if len(view) != 4 {
		t.Fatalf("Expected all 4 sections, got %d", len(view))
	}
	today := view[rules.SectionToday]
	if len(today) != 1 || today[0].ID != pending.ID {
		t.Errorf("Expected Today=[pending], got %v", today)
	}
}

func TestCategoryView(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	work := "Work"
	if _, err := s.AddTask("report", nil, &work, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.AddTask("errand", nil, nil, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	view := s.CategoryView()
	if len(view["Work"]) != 1 {
		t.Errorf("Expected 1 Work task, got %d", len(view["Work"]))
	}
	if len(view[models.NoCategoryLabel]) != 1 {
		t.Errorf("Expected 1 uncategorized task, got %d", len(view[models.NoCategoryLabel]))
	}
}

func TestAddTaskReminder(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	due := testNow.Add(48 * time.Hour)
	dated, _ := s.AddTask("dated", &due, nil, nil)
	undated, _ := s.AddTask("undated", nil, nil, nil)

	reminder, err := s.AddTaskReminder(dated.ID, models.ReminderType1Hour, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reminder.ReminderTime.Equal(due.Add(-time.Hour)) {
		t.Errorf("Expected reminder 1h before due, got %v", reminder.ReminderTime)
	}
	if !reminder.IsActive {
		t.Error("Expected reminder active")
	}

	if _, err := s.AddTaskReminder(undated.ID, models.ReminderType1Day, nil); !errors.Is(err, models.ErrReminderNeedsDueDate) {
		t.Errorf("Expected ErrReminderNeedsDueDate, got %v", err)
	}
	if _, err := s.AddTaskReminder("task-missing", models.ReminderType1Hour, nil); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}

	if err := s.RemoveTaskReminder(reminder.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := s.RemoveTaskReminder(reminder.ID); !errors.Is(err, ErrReminderNotFound) {
		t.Errorf("Expected ErrReminderNotFound, got %v", err)
	}
}

func TestSuggestions_AcceptAndDismiss(t *testing.T) {
	t.Parallel()

	s := newTestStore(nil)
	due := testNow.Add(72 * time.Hour)
	s.SetSuggestions([]models.SuggestedTask{
		{ID: "sg-1", Title: "Book flight to Berlin", DueAt: &due, Category: "Travel"},
		{ID: "sg-2", Title: "Pay invoice #42"},
	})

	task, err := s.AcceptSuggestion("sg-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.Title != "Book flight to Berlin" {
		t.Errorf("Expected suggestion title carried over, got %s", task.Title)
	}
	if task.Category == nil || *task.Category != "Travel" {
		t.Errorf("Expected category Travel, got %v", task.Category)
	}
	if task.DueAt == nil || !task.DueAt.Equal(due) {
		t.Errorf("Expected due date carried over, got %v", task.DueAt)
	}
	if got := s.Suggestions(); len(got) != 1 || got[0].ID != "sg-2" {
		t.Errorf("Expected only sg-2 left, got %v", got)
	}

	if err := s.DismissSuggestion("sg-2"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := s.Suggestions(); len(got) != 0 {
		t.Errorf("Expected no suggestions left, got %v", got)
	}
	if err := s.DismissSuggestion("sg-2"); !errors.Is(err, ErrSuggestionGone) {
		t.Errorf("Expected ErrSuggestionGone, got %v", err)
	}
	if _, err := s.AcceptSuggestion("sg-9"); !errors.Is(err, ErrSuggestionGone) {
		t.Errorf("Expected ErrSuggestionGone, got %v", err)
	}
}
