package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinelhq/sentinel-api/cmd/sentinelctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "sentinelctl",
		Short: "Command-line client for the Sentinel task API",
		Long:  "CLI for managing tasks, categories, reminders and email-derived suggestions",
	}

	rootCmd.PersistentFlags().String("server", "", "API base URL (defaults to $SENTINEL_SERVER or http://localhost:8080)")

	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewTasksCmd())
	rootCmd.AddCommand(commands.NewSuggestionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
