package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSuggestionsCmd creates the suggestions command group
func NewSuggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "Review email-derived task suggestions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Queue an email scan for new suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(cmd)
			if err := c.TriggerEmailSync(context.Background()); err != nil {
				return fmt.Errorf("failed to queue sync: %w", err)
			}
			fmt.Println("Sync queued; suggestions will appear once the scan finishes")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(cmd)
			suggestions, err := c.ListSuggestions(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list suggestions: %w", err)
			}
			if len(suggestions) == 0 {
				fmt.Println("No suggestions; run 'sentinelctl suggestions sync' to scan emails")
				return nil
			}
			for _, sg := range suggestions {
				fmt.Printf("%s  %s", sg.ID, sg.Title)
				if sg.DueAt != nil {
					fmt.Printf("  due %s", sg.DueAt.Local().Format("2006-01-02 15:04"))
				}
				if sg.Category != "" {
					fmt.Printf("  #%s", sg.Category)
				}
				if sg.EmailSubject != "" {
					fmt.Printf("  (from: %s)", sg.EmailSubject)
				}
				fmt.Println()
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "accept <id>",
		Short: "Turn a suggestion into a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(cmd)
			task, err := c.AcceptSuggestion(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to accept suggestion: %w", err)
			}
			fmt.Printf("Created task %s: %s\n", task.ID, task.Title)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dismiss <id>",
		Short: "Discard a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(cmd)
			if err := c.DismissSuggestion(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to dismiss suggestion: %w", err)
			}
			fmt.Println("Dismissed")
			return nil
		},
	})

	return cmd
}
