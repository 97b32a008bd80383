package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	// RootCmd is the root command for npmtrack
	RootCmd = &cobra.Command{
		Use:   "npmtrack",
		Short: "Track an npm identity's packages in a local database",
		Long: `npmtrack mirrors the npm packages of one identity (author, maintainer
or publisher) into a local SQLite database, materializes a curated category
whitelist, and deactivates everything outside it.

Each sync is all-or-nothing: the database only changes when the whole run
succeeds, so a half-failed sync never leaves partial state behind.

Quick Start:
  1. npmtrack init
  2. Edit ~/.npmtrack/npmtrack.toml (set registry.identity and your categories)
  3. npmtrack sync
  4. npmtrack list

Examples:
  # Create the database
  npmtrack init

  # Run one sync
  npmtrack sync

  # Show tracked packages
  npmtrack list

  # Keep syncing on an interval, re-reading the config on change
  npmtrack watch --interval 1h`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("npmtrack: track an npm identity's packages in a local database")
			fmt.Println()
			fmt.Println("Run 'npmtrack init' to get started.")
			fmt.Println("Run 'npmtrack --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.npmtrack/npmtrack.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ~/.npmtrack/npmtrack.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// newLogger builds the logger every command shares. Debug level is gated
// behind --verbose.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	dir, err := npmtrackDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "npmtrack.db"), nil
}

// getConfigPath returns the config file path, using the flag value or default
func getConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}

	dir, err := npmtrackDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "npmtrack.toml"), nil
}

// npmtrackDir returns ~/.npmtrack, creating it if needed.
func npmtrackDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".npmtrack")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create npmtrack directory: %w", err)
	}

	return dir, nil
}
