package store

import (
	"sort"
	"strings"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// SortKey selects the field a filtered list is ordered by.
type SortKey string

const (
	SortByCreated SortKey = "createdAt"
	SortByDue     SortKey = "dueAt"
	SortByTitle   SortKey = "title"
	SortByStatus  SortKey = "status"
)

// FilterState describes one pass of the filter pipeline. The zero value
// means "pending tasks, any category, created-date ascending".
type FilterState struct {
	// Query is a case-insensitive substring match against the title and
	// the category name. Empty matches everything.
	Query string
	// Categories restricts results to the named categories. The
	// "No Category" label matches uncategorized tasks. Empty means all.
	Categories []string
	// StarredOnly keeps only starred tasks.
	StarredOnly bool
	// IncludeDone keeps completed tasks in the result; by default they
	// are filtered out.
	IncludeDone bool
	// SortKey defaults to SortByCreated when empty.
	SortKey SortKey
	// SortDesc reverses the sort direction. Undated tasks stay last
	// under SortByDue either way.
	SortDesc bool
}

// ApplyFilters runs the pipeline over a snapshot: status filter, starred
// filter, category filter, text search, then a stable sort. The input slice
// is never modified; ties keep their input order.
func ApplyFilters(tasks []models.Task, f FilterState) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	query := strings.ToLower(strings.TrimSpace(f.Query))

	for _, task := range tasks {
		if !f.IncludeDone && task.Status == models.TaskStatusDone {
			continue
		}
		if f.StarredOnly && !task.IsStarred {
			continue
		}
		if len(f.Categories) > 0 && !matchesCategory(task, f.Categories) {
			continue
		}
		if query != "" && !matchesQuery(task, query) {
			continue
		}
		out = append(out, task)
	}

	sortTasks(out, f.SortKey, f.SortDesc)
	return out
}

func matchesCategory(task models.Task, categories []string) bool {
	name := models.NoCategoryLabel
	if task.Category != nil && *task.Category != "" {
		name = *task.Category
	}
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

func matchesQuery(task models.Task, query string) bool {
	if strings.Contains(strings.ToLower(task.Title), query) {
		return true
	}
	return task.Category != nil && strings.Contains(strings.ToLower(*task.Category), query)
}

func sortTasks(tasks []models.Task, key SortKey, desc bool) {
	if key == "" {
		key = SortByCreated
	}

	less := func(a, b models.Task) bool {
		switch key {
		case SortByDue:
			// Undated tasks sort last regardless of direction.
			switch {
			case a.DueAt == nil:
				return false
			case b.DueAt == nil:
				return true
			case desc:
				return a.DueAt.After(*b.DueAt)
			default:
				return a.DueAt.Before(*b.DueAt)
			}
		case SortByTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if desc {
				return at > bt
			}
			return at < bt
		case SortByStatus:
			if a.Status == b.Status {
				return false
			}
			pendingFirst := a.Status == models.TaskStatusPending
			if desc {
				return !pendingFirst
			}
			return pendingFirst
		default:
			if desc {
				return a.InsertedAt.After(b.InsertedAt)
			}
			return a.InsertedAt.Before(b.InsertedAt)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j])
	})
}

// FilteredTasks applies f to a snapshot of the store's collection.
func (s *TaskStore) FilteredTasks(f FilterState) []models.Task {
	return ApplyFilters(s.Tasks(), f)
}
