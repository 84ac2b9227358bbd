// Package rules derives presentation buckets from a flat task collection.
// Everything here is pure and deterministic given (tasks, now); views are
// recomputed on every read, never cached.
package rules

import (
	"sort"
	"time"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// Section is a time-based display bucket.
type Section string

const (
	SectionToday    Section = "Today"
	SectionTomorrow Section = "Tomorrow"
	SectionThisWeek Section = "This Week"
	SectionUpcoming Section = "Upcoming"
)

// Sections returns all sections in display order. Grouping always returns
// every section, empty or not; callers decide what to render.
func Sections() []Section {
	return []Section{SectionToday, SectionTomorrow, SectionThisWeek, SectionUpcoming}
}

// BucketSection places a task in a time bucket relative to now.
//
// The day delta is the raw duration divided by 24h, not a calendar-day
// difference: a task due 25 hours out lands in Tomorrow even if that is
// "the day after tomorrow" on a wall calendar. Overdue tasks surface under
// Today rather than a separate bucket.
func BucketSection(task models.Task, now time.Time) Section {
	if task.DueAt == nil {
		return SectionUpcoming
	}

	diffDays := task.DueAt.Sub(now).Hours() / 24

	switch {
	case diffDays < 0:
		return SectionToday
	case diffDays <= 1:
		return SectionToday
	case diffDays <= 2:
		return SectionTomorrow
	case diffDays <= 7:
		return SectionThisWeek
	default:
		return SectionUpcoming
	}
}

// GroupBySection buckets top-level pending-or-done tasks by section. Subtasks
// never appear in section views; they render nested under their parent.
func GroupBySection(tasks []models.Task, now time.Time) map[Section][]models.Task {
	sections := make(map[Section][]models.Task, 4)
	for _, s := range Sections() {
		sections[s] = []models.Task{}
	}

	for _, task := range tasks {
		if !task.IsTopLevel() {
			continue
		}
		s := BucketSection(task, now)
		sections[s] = append(sections[s], task)
	}

	for s := range sections {
		sortByPriority(sections[s])
	}

	return sections
}

// GroupByCategory buckets top-level tasks by category name. Tasks without a
// category fall into the "No Category" bucket.
func GroupByCategory(tasks []models.Task) map[string][]models.Task {
	categories := make(map[string][]models.Task)

	for _, task := range tasks {
		if !task.IsTopLevel() {
			continue
		}
		name := models.NoCategoryLabel
		if task.Category != nil && *task.Category != "" {
			name = *task.Category
		}
		categories[name] = append(categories[name], task)
	}

	for name := range categories {
		sortByPriority(categories[name])
	}

	return categories
}

// sortByPriority orders a bucket in place: starred tasks first, then due date
// ascending with undated tasks last. Stable, so equal tasks keep their
// original relative order.
func sortByPriority(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.IsStarred != b.IsStarred {
			return a.IsStarred
		}
		switch {
		case a.DueAt != nil && b.DueAt != nil:
			return a.DueAt.Before(*b.DueAt)
		case a.DueAt != nil:
			return true
		default:
			return false
		}
	})
}
