package ingest

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

// MissingCategoryError reports a category name that could not be resolved to
// a row id after the upsert pass. It indicates a bug or a concurrent schema
// problem, so the run aborts rather than silently dropping the association.
type MissingCategoryError struct {
	Name string
}

func (e *MissingCategoryError) Error() string {
	return fmt.Sprintf("category %q has no row id after upsert", e.Name)
}

// categoryWriter is the slice of the transaction the category phase needs.
type categoryWriter interface {
	EnsurePackage(name string, now time.Time) error
	UpsertCategory(name string, now time.Time) error
	CategoryIDs() (map[string]int64, error)
	ReplacePackageCategories(pkg string, categoryIDs []int64) error
}

// ApplyCategories materializes the whitelist into the database: every
// category gets a row, every whitelisted package gets a row (even when no
// search returned it), and each package's association set is overwritten to
// exactly its whitelist entry.
func ApplyCategories(tx categoryWriter, whitelist map[string][]string, categoryNames []string, now time.Time, logger *log.Logger) error {
	for _, name := range categoryNames {
		if err := tx.UpsertCategory(name, now); err != nil {
			return err
		}
	}

	ids, err := tx.CategoryIDs()
	if err != nil {
		return err
	}

	packages := make([]string, 0, len(whitelist))
	for pkg := range whitelist {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)

	for _, pkg := range packages {
		if err := tx.EnsurePackage(pkg, now); err != nil {
			return err
		}

		categories := whitelist[pkg]
		categoryIDs := make([]int64, 0, len(categories))
		for _, category := range categories {
			id, ok := ids[category]
			if !ok {
				return &MissingCategoryError{Name: category}
			}
			categoryIDs = append(categoryIDs, id)
		}

		if err := tx.ReplacePackageCategories(pkg, categoryIDs); err != nil {
			return err
		}
	}

	logger.Info("categories applied",
		"categories", len(categoryNames),
		"packages", len(packages))
	return nil
}
