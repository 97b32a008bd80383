package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/registrykit/npmtrack/internal/config"
	"github.com/registrykit/npmtrack/internal/registry"
	"github.com/registrykit/npmtrack/internal/store"
)

// Pipeline wires one sync run together. Every database write happens inside
// a single transaction: either the whole run commits, or the database is
// exactly what it was before the run started.
type Pipeline struct {
	Store    *store.Store
	Registry *registry.Registry
	Config   *config.Config
	Logger   *log.Logger
}

// Run executes the full sync: search aggregation, metadata fetch, category
// materialization, deactivation, commit. The first error at any phase rolls
// everything back.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	logger := p.Logger.With("run", runID)
	started := time.Now()

	logger.Info("sync started",
		"identity", p.Config.Registry.Identity,
		"registry", p.Config.Registry.BaseURL)

	tx, err := p.Store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	descriptors, err := AggregateSearches(ctx, p.Registry, p.Config.Registry.Identity, logger)
	if err != nil {
		return err
	}

	fetcher := NewBatchFetcher(p.Registry, tx, p.Config.Fetch.BatchSize, p.Config.Stagger(), logger)
	if err := fetcher.Run(ctx, descriptors); err != nil {
		return err
	}

	now := time.Now().UTC()
	whitelist := p.Config.PackageCategories()

	if err := ApplyCategories(tx, whitelist, p.Config.CategoryNames(), now, logger); err != nil {
		return err
	}

	if err := Deactivate(tx, whitelist, p.Config.IsBlacklisted, now, logger); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sync run could not commit: %w", err)
	}

	logger.Info("sync committed",
		"packages", len(descriptors),
		"elapsed", time.Since(started))
	return nil
}
