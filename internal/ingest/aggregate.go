// Package ingest implements the sync run: aggregate the identity searches,
// fetch package metadata in staggered batches, materialize categories, and
// deactivate everything outside the whitelist, all inside one transaction.
package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/registrykit/npmtrack/internal/registry"
)

// searcher is the slice of the registry client the aggregation phase needs.
type searcher interface {
	Search(ctx context.Context, qualifier registry.SearchQualifier, identity string) ([]registry.PackageDescriptor, error)
}

// searchOrder is the fixed qualifier sequence. When the same package appears
// under several qualifiers, the later search wins: a publisher result
// replaces a maintainer result, which replaces an author result.
var searchOrder = []registry.SearchQualifier{
	registry.ByAuthor,
	registry.ByMaintainer,
	registry.ByPublisher,
}

// AggregateSearches runs the three identity searches and merges their
// results into one deduplicated set, sorted by package name. Any search
// failure aborts the whole aggregation.
func AggregateSearches(ctx context.Context, reg searcher, identity string, logger *log.Logger) ([]registry.PackageDescriptor, error) {
	merged := make(map[string]registry.PackageDescriptor)

	for _, qualifier := range searchOrder {
		results, err := reg.Search(ctx, qualifier, identity)
		if err != nil {
			return nil, fmt.Errorf("search %s:%s failed: %w", qualifier, identity, err)
		}

		logger.Info("search completed",
			"qualifier", string(qualifier),
			"identity", identity,
			"results", len(results))

		for _, d := range results {
			merged[d.Name] = d
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]registry.PackageDescriptor, 0, len(merged))
	for _, name := range names {
		out = append(out, merged[name])
	}

	logger.Info("searches aggregated", "identity", identity, "packages", len(out))
	return out, nil
}
