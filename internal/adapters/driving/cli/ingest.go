package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/logger"
)

var ingestWatch bool

// watchDebounce batches bursts of file events into one ingestion run.
const watchDebounce = 2 * time.Second

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest extracted contract documents",
	Long: `Reads extracted plain-text contracts (.txt, .md) from a directory
tree, chunks and indexes them, and publishes a fresh retrieval
snapshot. Re-ingesting an updated file replaces its previous version.

With --watch, the command stays running and re-ingests whenever files
under the directory change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest on file changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := args[0]
	if err := ingestOnce(cmd, dir); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}

	cmd.Printf("Watching %s for changes (Ctrl-C to stop)...\n", dir)
	return watchAndIngest(cmd, dir)
}

func ingestOnce(cmd *cobra.Command, dir string) error {
	stats, err := ingestService.IngestDirectory(cmd.Context(), dir)
	if err != nil {
		if errors.Is(err, domain.ErrIngestInProgress) {
			return errors.New("another ingestion run is already in progress")
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %d documents (%d chunks", stats.Documents, stats.Chunks)
	if stats.Skipped > 0 {
		cmd.Printf(", %d skipped", stats.Skipped)
	}
	if stats.Errors > 0 {
		cmd.Printf(", %d errors", stats.Errors)
	}
	cmd.Println(")")
	return nil
}

// watchAndIngest re-runs ingestion when files under dir change. Events
// are debounced so one editor save or bulk copy triggers one run.
func watchAndIngest(cmd *cobra.Command, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, dir); err != nil {
		return err
	}

	ctx := cmd.Context()
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New subdirectories need their own watch
				if err := addWatchDirs(watcher, event.Name); err != nil {
					logger.Warn("Watching %s: %v", event.Name, err)
				}
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-pending:
			timer = nil
			if err := ingestOnce(cmd, dir); err != nil {
				logger.Warn("Re-ingest failed: %v", err)
			}
		}
	}
}

// addWatchDirs registers path and every directory under it. Non-
// directory paths are ignored.
func addWatchDirs(watcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// The path may have been removed between event and walk
			return nil
		}
		if d.IsDir() {
			if err := watcher.Add(p); err != nil {
				return fmt.Errorf("watching %s: %w", p, err)
			}
		}
		return nil
	})
}
