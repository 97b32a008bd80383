package ingest

import (
	"time"

	"github.com/charmbracelet/log"
)

// deactivator is the slice of the transaction the deactivation phase needs.
type deactivator interface {
	PackageNames() ([]string, error)
	DeactivatePackages(names []string, now time.Time) error
}

// Deactivate soft-deletes packages in two passes over every row in the
// database: first everything absent from the whitelist, then everything the
// blacklist matches. The blacklist pass runs second so a package that is
// both whitelisted and blacklisted still ends up inactive. Rows are never
// deleted and never reactivated here.
func Deactivate(tx deactivator, whitelist map[string][]string, blacklisted func(string) bool, now time.Time, logger *log.Logger) error {
	names, err := tx.PackageNames()
	if err != nil {
		return err
	}

	var notWhitelisted []string
	for _, name := range names {
		if _, ok := whitelist[name]; !ok {
			notWhitelisted = append(notWhitelisted, name)
		}
	}
	if len(notWhitelisted) > 0 {
		if err := tx.DeactivatePackages(notWhitelisted, now); err != nil {
			return err
		}
		logger.Info("deactivated packages outside whitelist",
			"count", len(notWhitelisted),
			"packages", notWhitelisted)
	}

	var denied []string
	for _, name := range names {
		if blacklisted(name) {
			denied = append(denied, name)
		}
	}
	if len(denied) > 0 {
		if err := tx.DeactivatePackages(denied, now); err != nil {
			return err
		}
		logger.Info("deactivated blacklisted packages",
			"count", len(denied),
			"packages", denied)
	}

	return nil
}
