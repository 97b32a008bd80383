package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	watchInterval time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Sync on an interval and on config changes",
		Long: `Run syncs continuously: once at startup, then on every interval tick,
and immediately whenever the config file changes on disk.

Unlike a one-shot sync, a failed run in watch mode is logged and the next
run proceeds as scheduled. Each run still commits atomically or not at all.`,
		Example: `  # Sync hourly
  npmtrack watch

  # Sync every 10 minutes
  npmtrack watch --interval 10m`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Hour, "time between syncs")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := cmd.Context()

	cfgPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Watch the directory, not the file: most editors replace the file on
	// save, which would drop a watch set on the file itself.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(cfgPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	logger.Info("watch started", "config", cfgPath, "interval", watchInterval)

	sync := func(reason string) {
		logger.Info("starting sync", "trigger", reason)
		if err := executeSync(ctx, logger); err != nil {
			logger.Error("sync failed", "trigger", reason, "error", err)
		}
	}

	sync("startup")

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	// Editors fire several events per save; coalesce them with a short
	// settle timer before triggering a run.
	var settle *time.Timer
	settleCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			sync("interval")

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != cfgPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if settle != nil {
				settle.Stop()
			}
			settle = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case settleCh <- struct{}{}:
				default:
				}
			})

		case <-settleCh:
			sync("config change")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", "error", err)
		}
	}
}
