package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/registrykit/npmtrack/internal/registry"
)

// timesFetcher is the slice of the registry client the fetch phase needs.
type timesFetcher interface {
	PackageTimes(ctx context.Context, name string) (registry.Times, error)
}

// packageWriter is the slice of the transaction the fetch phase needs.
type packageWriter interface {
	UpsertPackage(name string, creationDate, lastPublishDate time.Time) error
}

// BatchFetcher fetches full metadata for every aggregated package and
// upserts the rows. Packages are processed in fixed-size batches; within a
// batch the fetches run concurrently, but each acquires a rate-limiter slot
// first, so request starts are spread one stagger interval apart rather
// than hitting the registry all at once.
type BatchFetcher struct {
	registry  timesFetcher
	writer    packageWriter
	batchSize int
	limiter   *rate.Limiter
	logger    *log.Logger
}

// NewBatchFetcher creates a BatchFetcher. A stagger of zero disables the
// spacing between request starts.
func NewBatchFetcher(reg timesFetcher, writer packageWriter, batchSize int, stagger time.Duration, logger *log.Logger) *BatchFetcher {
	limit := rate.Inf
	if stagger > 0 {
		limit = rate.Every(stagger)
	}
	return &BatchFetcher{
		registry:  reg,
		writer:    writer,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// Run processes every descriptor. A batch must finish completely before the
// next one starts; the first task error aborts the run after its batch has
// settled.
func (f *BatchFetcher) Run(ctx context.Context, descriptors []registry.PackageDescriptor) error {
	for start := 0; start < len(descriptors); start += f.batchSize {
		end := start + f.batchSize
		if end > len(descriptors) {
			end = len(descriptors)
		}
		batch := descriptors[start:end]

		f.logger.Info("fetching batch",
			"batch", start/f.batchSize+1,
			"size", len(batch),
			"total", len(descriptors))

		g, gctx := errgroup.WithContext(ctx)
		for _, d := range batch {
			d := d
			g.Go(func() error {
				return f.fetchOne(gctx, d)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("batch starting at %d failed: %w", start, err)
		}
	}

	return nil
}

func (f *BatchFetcher) fetchOne(ctx context.Context, d registry.PackageDescriptor) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for fetch slot: %w", err)
	}

	started := time.Now()
	times, err := f.registry.PackageTimes(ctx, d.Name)
	elapsed := time.Since(started)

	if err != nil {
		f.logger.Error("package fetch failed",
			"package", d.Name,
			"elapsed", elapsed,
			"error", err)
		return fmt.Errorf("fetching metadata for %s: %w", d.Name, err)
	}

	lastPublish := d.Date
	if lastPublish.IsZero() {
		lastPublish = times.Modified
	}

	if err := f.writer.UpsertPackage(d.Name, times.Created, lastPublish); err != nil {
		return err
	}

	f.logger.Debug("package fetched",
		"package", d.Name,
		"elapsed", elapsed)
	return nil
}
