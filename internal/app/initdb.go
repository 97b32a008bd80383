package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/registrykit/npmtrack/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and a starter config file",
	Long: `Create the npmtrack database schema and, if no config file exists yet,
write a starter config to edit before the first sync.`,
	Example: `  # Initialize with defaults under ~/.npmtrack
  npmtrack init

  # Initialize a custom location
  npmtrack init --db ./npm.db --config ./npmtrack.toml`,
	RunE: runInit,
}

const starterConfig = `# npmtrack configuration

[registry]
# base_url = "https://registry.npmjs.org"
identity = ""

[fetch]
# batch_size = 100
# stagger_ms = 50

[categories]
# core = ["some-package", "another-package"]

[blacklist]
# namespaces = ["@internal/"]
# packages = ["deprecated-package"]
`

func runInit(cmd *cobra.Command, args []string) error {
	dbPath, err := getDBPath()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}

	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.CreateSchema(); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}
	fmt.Printf("Database initialized at %s\n", dbPath)

	cfgPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := os.WriteFile(cfgPath, []byte(starterConfig), 0644); err != nil {
			return fmt.Errorf("failed to write starter config: %w", err)
		}
		fmt.Printf("Starter config written to %s\n", cfgPath)
		fmt.Println()
		fmt.Println("Set registry.identity and your categories, then run 'npmtrack sync'.")
	} else {
		fmt.Printf("Config already exists at %s\n", cfgPath)
	}

	return nil
}
