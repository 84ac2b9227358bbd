package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinelhq/sentinel-api/internal/models"
	"github.com/sentinelhq/sentinel-api/internal/rules"
	"github.com/sentinelhq/sentinel-api/internal/store"
)

// NewTasksCmd creates the tasks command group
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}

	cmd.AddCommand(newTasksListCmd())
	cmd.AddCommand(newTasksAddCmd())
	cmd.AddCommand(newTasksDoneCmd())
	cmd.AddCommand(newTasksStarCmd())
	cmd.AddCommand(newTasksRmCmd())
	cmd.AddCommand(newTasksMvCmd())

	return cmd
}

func newTasksListCmd() *cobra.Command {
	var byCategory bool
	var query, sortKey string
	var starred, includeDone, doneOnly bool
	var categories []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks grouped by due-date section",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newStore(newClient(cmd))
			if err := s.FetchTasks(context.Background()); err != nil {
				return fmt.Errorf("failed to fetch tasks: %w", err)
			}

			// Any filter flag switches from the grouped views to a flat
			// filtered list.
			filtered := query != "" || starred || includeDone || doneOnly ||
				sortKey != "" || len(categories) > 0
			if filtered {
				f := store.FilterState{
					Query:       query,
					Categories:  categories,
					StarredOnly: starred,
					IncludeDone: includeDone || doneOnly,
					SortKey:     store.SortKey(sortKey),
				}
				tasks := s.FilteredTasks(f)
				if doneOnly {
					tasks = keepDone(tasks)
				}
				if len(tasks) == 0 {
					fmt.Println("No matching tasks")
					return nil
				}
				for _, t := range tasks {
					printTask(t, s, "")
				}
				return nil
			}

			if byCategory {
				view := s.CategoryView()
				names := make([]string, 0, len(view))
				for name := range view {
					names = append(names, name)
				}
				// Uncategorized last, the rest alphabetical
				sortCategoryNames(names)
				for _, name := range names {
					fmt.Printf("%s\n", name)
					for _, t := range view[name] {
						printTask(t, s, "  ")
					}
				}
				return nil
			}

			view := s.SectionView()
			for _, section := range rules.Sections() {
				tasks := view[section]
				if len(tasks) == 0 {
					continue
				}
				fmt.Printf("%s\n", section)
				for _, t := range tasks {
					printTask(t, s, "  ")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&byCategory, "by-category", false, "Group by category instead of due-date section")
	cmd.Flags().StringVar(&query, "query", "", "Filter by title or category substring")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Restrict to the named categories")
	cmd.Flags().BoolVar(&starred, "starred", false, "Show only starred tasks")
	cmd.Flags().BoolVar(&includeDone, "all", false, "Include completed tasks")
	cmd.Flags().BoolVar(&doneOnly, "done", false, "Show only completed tasks")
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort key: createdAt, dueAt, title or status")

	return cmd
}

func newTasksAddCmd() *cobra.Command {
	var due, category, parent string
	var folder bool

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newStore(newClient(cmd))
			if err := s.FetchTasks(context.Background()); err != nil {
				return fmt.Errorf("failed to fetch tasks: %w", err)
			}

			var dueAt *time.Time
			if due != "" {
				parsed, err := parseDue(due)
				if err != nil {
					return err
				}
				dueAt = &parsed
			}
			var categoryPtr, parentPtr *string
			if category != "" {
				categoryPtr = &category
			}
			if parent != "" {
				parentPtr = &parent
			}

			task, err := s.AddTask(args[0], dueAt, categoryPtr, parentPtr)
			if err != nil {
				return err
			}
			// The background create may swap the local id for the
			// server-assigned one; settle before printing or converting.
			s.Flush()
			created := resolveCreated(s, task)
			if folder {
				if created, err = s.ConvertTaskToFolder(created.ID); err != nil {
					return err
				}
				s.Flush()
			}

			fmt.Printf("Created %s: %s\n", created.ID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&due, "due", "", "Due date (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "Category name")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent task id (creates a subtask)")
	cmd.Flags().BoolVar(&folder, "folder", false, "Create as a folder")

	return cmd
}

func newTasksDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between pending and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newStore(newClient(cmd))
			if err := s.FetchTasks(context.Background()); err != nil {
				return fmt.Errorf("failed to fetch tasks: %w", err)
			}
			task, err := s.ToggleDone(args[0])
			if err != nil {
				return err
			}
			s.Flush()
			fmt.Printf("%s is now %s\n", task.Title, task.Status)
			return nil
		},
	}
}

func newTasksStarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "star <id>",
		Short: "Toggle a task's star",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newStore(newClient(cmd))
			if err := s.FetchTasks(context.Background()); err != nil {
				return fmt.Errorf("failed to fetch tasks: %w", err)
			}
			task, err := s.ToggleStar(args[0])
			if err != nil {
				return err
			}
			s.Flush()
			if task.IsStarred {
				fmt.Printf("Starred %s\n", task.Title)
			} else {
				fmt.Printf("Unstarred %s\n", task.Title)
			}
			return nil
		},
	}
}

func newTasksRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newStore(newClient(cmd))
			if err := s.FetchTasks(context.Background()); err != nil {
				return fmt.Errorf("failed to fetch tasks: %w", err)
			}
			if err := s.DeleteTask(args[0]); err != nil {
				return err
			}
			s.Flush()
			fmt.Println("Deleted")
			return nil
		},
	}
}

func newTasksMvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <id> [category]",
		Short: "Move a task to a category, or clear it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newStore(newClient(cmd))
			if err := s.FetchTasks(context.Background()); err != nil {
				return fmt.Errorf("failed to fetch tasks: %w", err)
			}
			var category *string
			if len(args) == 2 {
				category = &args[1]
			}
			task, err := s.MoveToCategory(args[0], category)
			if err != nil {
				return err
			}
			s.Flush()
			if task.Category != nil {
				fmt.Printf("Moved %s to %s\n", task.Title, *task.Category)
			} else {
				fmt.Printf("Cleared category on %s\n", task.Title)
			}
			return nil
		},
	}
	return cmd
}

// resolveCreated maps a freshly added task back to its current record after
// the create sync may have rewritten its id.
func resolveCreated(s *store.TaskStore, local models.Task) models.Task {
	if got, ok := s.Task(local.ID); ok {
		return got
	}
	for _, t := range s.Tasks() {
		if t.Title == local.Title && t.InsertedAt.Equal(local.InsertedAt) {
			return t
		}
	}
	return local
}

// printTask renders one task line plus its subtasks indented below it.
func printTask(t models.Task, s *store.TaskStore, indent string) {
	fmt.Printf("%s%s\n", indent, formatTask(t))
	for _, sub := range s.Subtasks(t.ID) {
		fmt.Printf("%s  %s\n", indent, formatTask(sub))
	}
}

func formatTask(t models.Task) string {
	var b strings.Builder
	if t.Status == models.TaskStatusDone {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	if t.IsStarred {
		b.WriteString("* ")
	}
	b.WriteString(t.Title)
	if t.IsFolder {
		b.WriteString(" (folder)")
	}
	if t.DueAt != nil {
		b.WriteString("  due ")
		b.WriteString(t.DueAt.Local().Format("2006-01-02 15:04"))
	}
	if t.Category != nil && *t.Category != "" {
		b.WriteString("  #")
		b.WriteString(*t.Category)
	}
	b.WriteString("  (")
	b.WriteString(t.ID)
	b.WriteString(")")
	return b.String()
}

func keepDone(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone {
			out = append(out, t)
		}
	}
	return out
}

// sortCategoryNames orders names alphabetically with "No Category" last.
func sortCategoryNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		if names[i] == models.NoCategoryLabel {
			return false
		}
		if names[j] == models.NoCategoryLabel {
			return true
		}
		return names[i] < names[j]
	})
}

// parseDue accepts an RFC 3339 timestamp or a bare date, which becomes end
// of day local time.
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, time.Local), nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q, want RFC 3339 or YYYY-MM-DD", s)
}
