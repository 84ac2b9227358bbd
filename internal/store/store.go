// Package store holds the in-session task collection and keeps it in sync
// with a Repository. Mutations apply locally first and persist in the
// background; a failed persist never rolls the local change back, it only
// marks the record's sync state.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sentinelhq/sentinel-api/internal/models"
	"github.com/sentinelhq/sentinel-api/internal/rules"
)

// SyncState tracks where a task stands relative to the repository.
type SyncState string

const (
	// SyncStateLocal marks tasks that only exist in memory (guest mode).
	SyncStateLocal SyncState = "local"
	// SyncStatePending marks tasks with an in-flight repository write.
	SyncStatePending SyncState = "pending"
	// SyncStateSynced marks tasks whose last write was acknowledged.
	SyncStateSynced SyncState = "synced"
	// SyncStateFailed marks tasks whose last write was rejected or timed
	// out. The local copy is kept as-is.
	SyncStateFailed SyncState = "failed"
)

var (
	ErrEmptyTitle       = errors.New("task title cannot be empty")
	ErrTaskNotFound     = errors.New("task not found")
	ErrNestingTooDeep   = errors.New("subtasks cannot have their own subtasks")
	ErrReminderNotFound = errors.New("reminder not found")
	ErrSuggestionGone   = errors.New("suggestion not found")
)

const syncTimeout = 10 * time.Second

// TaskStore is the session-local source of truth for tasks, reminders and
// email suggestions. A nil Repository puts the store in guest mode: every
// mutation stays in memory and is marked SyncStateLocal.
//
// All exported methods are safe for concurrent use.
type TaskStore struct {
	mu     sync.Mutex
	repo   Repository
	logger *zap.Logger
	now    func() time.Time

	tasks       []models.Task
	reminders   []models.TaskReminder
	suggestions []models.SuggestedTask
	syncStates  map[string]SyncState

	wg sync.WaitGroup
}

// Option customizes a TaskStore.
type Option func(*TaskStore)

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) {
		s.now = now
	}
}

// NewTaskStore creates a store backed by repo. Pass a nil repo for guest
// mode.
func NewTaskStore(repo Repository, logger *zap.Logger, opts ...Option) *TaskStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TaskStore{
		repo:       repo,
		logger:     logger,
		now:        time.Now,
		syncStates: make(map[string]SyncState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchTasks replaces the local collection with the repository's view. On
// repository failure the existing collection is retained untouched and the
// error is returned for the caller to surface; stale data beats no data.
func (s *TaskStore) FetchTasks(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	fetched, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("task fetch failed, keeping stale collection", zap.Error(err))
		return fmt.Errorf("fetching tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = fetched
	s.syncStates = make(map[string]SyncState, len(fetched))
	known := make(map[string]bool, len(fetched))
	for _, task := range fetched {
		s.syncStates[task.ID] = SyncStateSynced
		known[task.ID] = true
	}

	// Reminders are session-local associations; drop the ones whose task
	// no longer exists.
	kept := s.reminders[:0]
	for _, r := range s.reminders {
		if known[r.TaskID] {
			kept = append(kept, r)
		}
	}
	s.reminders = kept

	return nil
}

// AddTask creates a task locally and persists it in the background. The
// returned task is visible in views immediately, before the repository
// responds.
func (s *TaskStore) AddTask(title string, dueAt *time.Time, category *string, parentID *string) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, ErrEmptyTitle
	}

	s.mu.Lock()

	if parentID != nil && *parentID != "" {
		if parent, ok := s.findLocked(*parentID); ok && !parent.IsTopLevel() {
			s.mu.Unlock()
			return models.Task{}, ErrNestingTooDeep
		}
	}

	now := s.now()
	task := models.Task{
		ID:         models.NewLocalTaskID(now),
		Title:      title,
		Status:     models.TaskStatusPending,
		DueAt:      dueAt,
		Category:   category,
		ParentID:   parentID,
		InsertedAt: now,
		UpdatedAt:  now,
	}
	s.tasks = append(s.tasks, task)

	if s.repo == nil {
		s.syncStates[task.ID] = SyncStateLocal
		s.mu.Unlock()
		return task, nil
	}
	s.syncStates[task.ID] = SyncStatePending
	s.mu.Unlock()

	localID := task.ID
	s.runSync("create", func(ctx context.Context) (string, error) {
		created, err := s.repo.Create(ctx, task)
		if err != nil {
			return localID, err
		}
		return s.adoptRemoteID(localID, created.ID), nil
	})

	return task, nil
}

// ToggleDone flips a task between pending and done.
func (s *TaskStore) ToggleDone(id string) (models.Task, error) {
	s.mu.Lock()
	task, ok := s.findLocked(id)
	if !ok {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("toggling task %s: %w", id, ErrTaskNotFound)
	}
	task.Status = task.Status.Toggle()
	task.UpdatedAt = s.now()
	snapshot := *task
	s.markPendingLocked(id)
	s.mu.Unlock()

	if s.repo != nil {
		s.runSync("set_status", func(ctx context.Context) (string, error) {
			return id, s.repo.SetStatus(ctx, id, snapshot.Status)
		})
	}
	return snapshot, nil
}

// ToggleStar flips a task's starred flag.
func (s *TaskStore) ToggleStar(id string) (models.Task, error) {
	s.mu.Lock()
	task, ok := s.findLocked(id)
	if !ok {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("starring task %s: %w", id, ErrTaskNotFound)
	}
	task.IsStarred = !task.IsStarred
	task.UpdatedAt = s.now()
	snapshot := *task
	s.markPendingLocked(id)
	s.mu.Unlock()

	if s.repo != nil {
		s.runSync("toggle_star", func(ctx context.Context) (string, error) {
			return id, s.repo.ToggleStar(ctx, id)
		})
	}
	return snapshot, nil
}

// UpdateTask merges a partial patch into a task.
func (s *TaskStore) UpdateTask(id string, patch models.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	task, ok := s.findLocked(id)
	if !ok {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("updating task %s: %w", id, ErrTaskNotFound)
	}
	patch.Apply(task, s.now())
	snapshot := *task
	s.markPendingLocked(id)
	s.mu.Unlock()

	if s.repo != nil {
		s.runSync("update", func(ctx context.Context) (string, error) {
			_, err := s.repo.Update(ctx, id, patch)
			return id, err
		})
	}
	return snapshot, nil
}

// MoveToCategory reassigns a task's category. A nil category moves the task
// to the "No Category" bucket.
func (s *TaskStore) MoveToCategory(id string, category *string) (models.Task, error) {
	return s.UpdateTask(id, models.TaskPatch{Category: &category})
}

// ConvertTaskToFolder marks a task as a folder. Its existing fields are
// untouched, so converting back loses nothing.
func (s *TaskStore) ConvertTaskToFolder(id string) (models.Task, error) {
	isFolder := true
	return s.UpdateTask(id, models.TaskPatch{IsFolder: &isFolder})
}

// ConvertFolderToTask turns a folder back into a plain task. Its subtasks
// keep their parent link.
func (s *TaskStore) ConvertFolderToTask(id string) (models.Task, error) {
	isFolder := false
	return s.UpdateTask(id, models.TaskPatch{IsFolder: &isFolder})
}

// DeleteTask removes a task and every descendant, along with their
// reminders. Only the root id is sent to the repository; both sides cascade
// independently.
func (s *TaskStore) DeleteTask(id string) error {
	s.mu.Lock()
	if _, ok := s.findLocked(id); !ok {
		s.mu.Unlock()
		return fmt.Errorf("deleting task %s: %w", id, ErrTaskNotFound)
	}

	doomed := map[string]bool{id: true}
	for {
		grew := false
		for _, task := range s.tasks {
			if task.ParentID != nil && doomed[*task.ParentID] && !doomed[task.ID] {
				doomed[task.ID] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	keptTasks := s.tasks[:0]
	for _, task := range s.tasks {
		if doomed[task.ID] {
			delete(s.syncStates, task.ID)
			continue
		}
		keptTasks = append(keptTasks, task)
	}
	s.tasks = keptTasks

	keptReminders := s.reminders[:0]
	for _, r := range s.reminders {
		if !doomed[r.TaskID] {
			keptReminders = append(keptReminders, r)
		}
	}
	s.reminders = keptReminders
	s.mu.Unlock()

	if s.repo != nil {
		s.runSync("delete", func(ctx context.Context) (string, error) {
			return id, s.repo.Delete(ctx, id)
		})
	}
	return nil
}

// ReorderTasks moves the task at index from to index to. The order is purely
// presentational and is never persisted; section views re-sort regardless.
func (s *TaskStore) ReorderTasks(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from < 0 || from >= len(s.tasks) || to < 0 || to >= len(s.tasks) {
		return fmt.Errorf("reorder indices out of range: %d -> %d with %d tasks", from, to, len(s.tasks))
	}
	if from == to {
		return nil
	}

	moved := s.tasks[from]
	s.tasks = append(s.tasks[:from], s.tasks[from+1:]...)
	rest := append([]models.Task{}, s.tasks[to:]...)
	s.tasks = append(append(s.tasks[:to:to], moved), rest...)
	return nil
}

// Tasks returns a snapshot of the full collection in insertion order.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Task returns a single task by id.
func (s *TaskStore) Task(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.findLocked(id); ok {
		return *task, true
	}
	return models.Task{}, false
}

// Subtasks returns the direct children of a task in insertion order.
func (s *TaskStore) Subtasks(parentID string) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, task := range s.tasks {
		if task.ParentID != nil && *task.ParentID == parentID {
			out = append(out, task)
		}
	}
	return out
}

// SyncState reports where a task stands relative to the repository.
func (s *TaskStore) SyncState(id string) SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.syncStates[id]; ok {
		return state
	}
	return SyncStateLocal
}

// SectionView groups pending top-level tasks into the four time sections.
// Done tasks never feed the bucketer; they live behind the completed filter.
func (s *TaskStore) SectionView() map[rules.Section][]models.Task {
	return rules.GroupBySection(s.pendingTasks(), s.now())
}

// CategoryView groups pending top-level tasks by category name.
func (s *TaskStore) CategoryView() map[string][]models.Task {
	return rules.GroupByCategory(s.pendingTasks())
}

func (s *TaskStore) pendingTasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, task := range s.tasks {
		if task.Status != models.TaskStatusDone {
			out = append(out, task)
		}
	}
	return out
}

// AddTaskReminder attaches a reminder to an existing task. Relative types
// need the task to carry a due date; custom reminders need an explicit time.
func (s *TaskStore) AddTaskReminder(taskID string, typ models.ReminderType, customTime *time.Time) (models.TaskReminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.findLocked(taskID)
	if !ok {
		return models.TaskReminder{}, fmt.Errorf("adding reminder to task %s: %w", taskID, ErrTaskNotFound)
	}

	at, err := models.DeriveReminderTime(typ, task.DueAt, customTime)
	if err != nil {
		return models.TaskReminder{}, err
	}

	reminder := models.TaskReminder{
		ID:           uuid.NewString(),
		TaskID:       taskID,
		ReminderTime: at,
		Type:         typ,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	s.reminders = append(s.reminders, reminder)
	return reminder, nil
}

// TaskReminders returns the reminders attached to a task.
func (s *TaskStore) TaskReminders(taskID string) []models.TaskReminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TaskReminder
	for _, r := range s.reminders {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out
}

// RemoveTaskReminder deletes a reminder by id.
func (s *TaskStore) RemoveTaskReminder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.reminders {
		if r.ID == id {
			s.reminders = append(s.reminders[:i], s.reminders[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("removing reminder %s: %w", id, ErrReminderNotFound)
}

// SetSuggestions replaces the current suggestion list. Suggestions are
// ephemeral and never persist across sessions.
func (s *TaskStore) SetSuggestions(suggestions []models.SuggestedTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = append([]models.SuggestedTask{}, suggestions...)
}

// Suggestions returns a snapshot of the current suggestions.
func (s *TaskStore) Suggestions() []models.SuggestedTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SuggestedTask, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

// AcceptSuggestion promotes a suggestion into a real top-level task and
// removes it from the suggestion list.
func (s *TaskStore) AcceptSuggestion(id string) (models.Task, error) {
	s.mu.Lock()
	var accepted *models.SuggestedTask
	for i, sg := range s.suggestions {
		if sg.ID == id {
			accepted = &sg
			s.suggestions = append(s.suggestions[:i], s.suggestions[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if accepted == nil {
		return models.Task{}, fmt.Errorf("accepting suggestion %s: %w", id, ErrSuggestionGone)
	}

	var category *string
	if accepted.Category != "" {
		category = &accepted.Category
	}
	return s.AddTask(accepted.Title, accepted.DueAt, category, nil)
}

// DismissSuggestion drops a suggestion without creating a task.
func (s *TaskStore) DismissSuggestion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sg := range s.suggestions {
		if sg.ID == id {
			s.suggestions = append(s.suggestions[:i], s.suggestions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("dismissing suggestion %s: %w", id, ErrSuggestionGone)
}

// Flush blocks until every in-flight background write has settled. Callers
// that care about final sync states (tests, CLI exit) use this.
func (s *TaskStore) Flush() {
	s.wg.Wait()
}

func (s *TaskStore) findLocked(id string) (*models.Task, bool) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return &s.tasks[i], true
		}
	}
	return nil, false
}

func (s *TaskStore) markPendingLocked(id string) {
	if s.repo == nil {
		s.syncStates[id] = SyncStateLocal
		return
	}
	s.syncStates[id] = SyncStatePending
}

// runSync performs one repository write off the caller's goroutine. fn
// returns the id whose sync state should be updated; ids no longer tracked
// (deleted tasks) are skipped.
func (s *TaskStore) runSync(op string, fn func(context.Context) (string, error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		id, err := fn(ctx)
		if err != nil {
			s.logger.Warn("task sync failed",
				zap.String("op", op),
				zap.String("task_id", id),
				zap.Error(err))
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, tracked := s.syncStates[id]; !tracked {
			return
		}
		if err != nil {
			s.syncStates[id] = SyncStateFailed
		} else {
			s.syncStates[id] = SyncStateSynced
		}
	}()
}

// adoptRemoteID rewrites a locally generated id to the repository-assigned
// one, including child parent links and reminder associations. Returns the
// id in effect afterwards.
func (s *TaskStore) adoptRemoteID(localID, remoteID string) string {
	if remoteID == "" || remoteID == localID {
		return localID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == localID {
			s.tasks[i].ID = remoteID
		}
		if s.tasks[i].ParentID != nil && *s.tasks[i].ParentID == localID {
			pid := remoteID
			s.tasks[i].ParentID = &pid
		}
	}
	for i := range s.reminders {
		if s.reminders[i].TaskID == localID {
			s.reminders[i].TaskID = remoteID
		}
	}
	if state, ok := s.syncStates[localID]; ok {
		delete(s.syncStates, localID)
		s.syncStates[remoteID] = state
	}
	return remoteID
}
