package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/registrykit/npmtrack/internal/config"
	"github.com/registrykit/npmtrack/internal/ingest"
	"github.com/registrykit/npmtrack/internal/registry"
	"github.com/registrykit/npmtrack/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full sync against the registry",
	Long: `Run one sync: search the registry for every package of the configured
identity, fetch full metadata for each, materialize the category whitelist,
and deactivate packages outside it.

All database writes happen in a single transaction. If any step fails the
transaction rolls back, the process exits non-zero, and the database is
unchanged.`,
	Example: `  # Sync using the default config and database
  npmtrack sync

  # Sync a specific database with debug logging
  npmtrack sync --db ./npm.db -v`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	return executeSync(cmd.Context(), newLogger())
}

// executeSync loads the config and database fresh and runs one sync. The
// watch command reuses it, so config edits take effect on the next run
// without a restart.
func executeSync(ctx context.Context, logger *log.Logger) error {
	cfgPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	dbPath, err := getDBPath()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reg := registry.New(cfg.Registry.BaseURL, registry.NewClient())

	p := &ingest.Pipeline{
		Store:    db,
		Registry: reg,
		Config:   cfg,
		Logger:   logger,
	}

	return p.Run(ctx)
}
