package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/registrykit/npmtrack/internal/output"
	"github.com/registrykit/npmtrack/internal/store"
)

var (
	listInactive bool
	listJSON     bool

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Show tracked packages",
		Long: `Show the packages in the database with their categories and active
status. Inactive packages (deactivated by the whitelist or blacklist) are
hidden unless --inactive is given.`,
		Example: `  # Active packages as a table
  npmtrack list

  # Everything, including deactivated packages
  npmtrack list --inactive

  # Machine-readable output
  npmtrack list --json`,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().BoolVar(&listInactive, "inactive", false, "include deactivated packages")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON instead of a table")
}

type listEntry struct {
	Name            string    `json:"name"`
	CreationDate    time.Time `json:"creation_date"`
	LastPublishDate time.Time `json:"last_publish_date"`
	IsActive        bool      `json:"is_active"`
	Categories      []string  `json:"categories,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	dbPath, err := getDBPath()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	packages, err := db.ListPackages()
	if err != nil {
		return err
	}

	if !listInactive {
		active := packages[:0]
		for _, pkg := range packages {
			if pkg.IsActive {
				active = append(active, pkg)
			}
		}
		packages = active
	}

	categories, err := db.CategoriesByPackage()
	if err != nil {
		return err
	}

	if listJSON {
		entries := make([]listEntry, 0, len(packages))
		for _, pkg := range packages {
			entries = append(entries, listEntry{
				Name:            pkg.Name,
				CreationDate:    pkg.CreationDate,
				LastPublishDate: pkg.LastPublishDate,
				IsActive:        pkg.IsActive,
				Categories:      categories[pkg.Name],
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Print(output.RenderPackageTable(packages, categories))
	return nil
}
