package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/extractor"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/metrics"
)

var (
	// ErrAlreadyWatched is returned when a root is registered twice.
	ErrAlreadyWatched = errors.New("path is already being watched")

	// ErrUnsupportedRoot is returned for paths that are neither a
	// directory nor a ZIP archive.
	ErrUnsupportedRoot = errors.New("path is neither a directory nor a ZIP archive")
)

// Result is the structured outcome of a watch operation, surfaced to
// the UI verbatim.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ScanStats aggregates bulk-scan timing for observability.
type ScanStats struct {
	LastScanStart    time.Time     `json:"lastScanStart"`
	LastScanDuration time.Duration `json:"lastScanDuration"`
	LastScanFiles    int           `json:"lastScanFiles"`
	TotalScans       int           `json:"totalScans"`
	TotalFiles       int           `json:"totalFiles"`
	TotalDuration    time.Duration `json:"totalDuration"`
}

// AverageDuration returns the mean scan duration across all runs.
func (s ScanStats) AverageDuration() time.Duration {
	if s.TotalScans == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.TotalScans)
}

// Coordinator reconciles the catalog with the live filesystem state of
// every watched root. The store is the source of truth for what is
// watched; the in-memory watch map only caches live handles and is
// rebuilt from the store at startup.
type Coordinator struct {
	store  *catalog.Store
	worker *extractor.Worker

	// onChange is signalled after inserts and deletes, fire-and-forget.
	onChange func()

	mu      sync.Mutex
	watches map[string]*fsnotify.Watcher
	stats   ScanStats
}

// New creates a Coordinator with no live watches.
func New(store *catalog.Store, worker *extractor.Worker) *Coordinator {
	return &Coordinator{
		store:   store,
		worker:  worker,
		watches: make(map[string]*fsnotify.Watcher),
	}
}

// OnChange registers the catalog-changed callback. Must be set before
// roots are added.
func (c *Coordinator) OnChange(fn func()) {
	c.onChange = fn
}

// notifyChanged signals the UI without ever blocking ingestion.
func (c *Coordinator) notifyChanged() {
	if c.onChange != nil {
		c.onChange()
	}
}

// Stats returns a copy of the scan statistics.
func (c *Coordinator) Stats() ScanStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// AddRoot registers a new directory or ZIP root: bulk-scans it, installs
// a live watch (directories only), and persists it so it survives
// restarts. Failures leave no partial watch behind.
func (c *Coordinator) AddRoot(ctx context.Context, path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return failure("invalid path: %v", err), err
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return failure("path does not exist: %s", abs), err
	}
	if err != nil {
		return failure("cannot access path: %v", err), err
	}

	isDir := info.IsDir()
	if !isDir && !mediatypes.IsArchive(abs) {
		return failure("not a directory or ZIP archive: %s", abs), ErrUnsupportedRoot
	}

	// Persist first: the unique constraint is the duplicate check.
	if _, err := c.store.AddWatchRoot(ctx, abs, isDir); err != nil {
		if errors.Is(err, catalog.ErrRootExists) {
			return failure("already watching %s", abs), ErrAlreadyWatched
		}
		return failure("failed to register root: %v", err), err
	}

	count, err := c.scanRoot(ctx, abs, isDir)
	if err != nil {
		c.unregister(ctx, abs)
		return failure("scan failed: %v", err), err
	}

	if isDir {
		if err := c.installWatch(abs); err != nil {
			c.unregister(ctx, abs)
			return failure("failed to install watch: %v", err), err
		}
	}

	c.notifyChanged()
	logging.Info("Watching %s (%d images found)", abs, count)
	return Result{
		Success: true,
		Message: fmt.Sprintf("Added %s: %d images found", abs, count),
		Count:   count,
	}, nil
}

// unregister rolls back a partially added root.
func (c *Coordinator) unregister(ctx context.Context, path string) {
	if _, err := c.store.RemoveWatchRoot(ctx, path); err != nil {
		logging.Error("failed to roll back root %s: %v", path, err)
	}
}

// RemoveRoot stops watching a root. Already-indexed images are kept and
// stay queryable; only ingestion and monitoring stop.
func (c *Coordinator) RemoveRoot(ctx context.Context, path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return failure("invalid path: %v", err), err
	}

	c.stopWatch(abs)

	removed, err := c.store.RemoveWatchRoot(ctx, abs)
	if err != nil {
		return failure("failed to remove root: %v", err), err
	}
	if removed == 0 {
		return failure("not watching %s", abs), nil
	}

	logging.Info("Stopped watching %s", abs)
	return Result{Success: true, Message: fmt.Sprintf("Removed %s", abs)}, nil
}

// RestoreRoots re-installs watches for every persisted root at startup.
// Roots whose path no longer exists are pruned from the store.
func (c *Coordinator) RestoreRoots(ctx context.Context) error {
	roots, err := c.store.ListWatchRoots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list persisted roots: %w", err)
	}

	for _, root := range roots {
		info, statErr := os.Stat(root.Path)
		if statErr != nil {
			logging.Warn("pruning vanished root %s: %v", root.Path, statErr)
			if _, pruneErr := c.store.RemoveWatchRoot(ctx, root.Path); pruneErr != nil {
				logging.Error("failed to prune root %s: %v", root.Path, pruneErr)
			}
			continue
		}

		isDir := info.IsDir()
		if _, scanErr := c.scanRoot(ctx, root.Path, isDir); scanErr != nil {
			logging.Error("startup scan of %s failed: %v", root.Path, scanErr)
			continue
		}
		if isDir {
			if watchErr := c.installWatch(root.Path); watchErr != nil {
				logging.Error("failed to restore watch on %s: %v", root.Path, watchErr)
			}
		}
	}

	c.notifyChanged()
	return nil
}

// RebuildAll tears the catalog down and re-indexes every persisted root
// from scratch: pending extraction jobs are dropped first so stale
// enrichment is never written, then the store is cleared, all live
// watches are closed, and each root is re-scanned and re-watched.
func (c *Coordinator) RebuildAll(ctx context.Context) (Result, error) {
	dropped := c.worker.ClearQueue()

	removed, err := c.store.ClearAll(ctx)
	if err != nil {
		return failure("failed to clear catalog: %v", err), err
	}

	c.closeAllWatches()

	logging.Info("Rebuild: cleared %d images, dropped %d pending jobs", removed, dropped)

	if err := c.RestoreRoots(ctx); err != nil {
		return failure("rebuild re-scan failed: %v", err), err
	}

	n, err := c.store.CountImages(ctx)
	if err != nil {
		return failure("rebuild count failed: %v", err), err
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Rebuilt catalog: %d images re-indexed", n),
		Count:   int(n),
	}, nil
}

// RescanForNewFiles walks every persisted root again, picking up files
// the live watches missed. Already-indexed paths are skipped, so this
// is cheap relative to a rebuild.
func (c *Coordinator) RescanForNewFiles(ctx context.Context) (Result, error) {
	roots, err := c.store.ListWatchRoots(ctx)
	if err != nil {
		return failure("failed to list roots: %v", err), err
	}

	total := 0
	for _, root := range roots {
		info, statErr := os.Stat(root.Path)
		if statErr != nil {
			logging.Warn("skipping vanished root %s during rescan", root.Path)
			continue
		}
		count, scanErr := c.scanRoot(ctx, root.Path, info.IsDir())
		if scanErr != nil {
			logging.Error("rescan of %s failed: %v", root.Path, scanErr)
			continue
		}
		total += count
	}

	if total > 0 {
		c.notifyChanged()
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Rescan complete: %d new images", total),
		Count:   total,
	}, nil
}

// Close stops every live watch.
func (c *Coordinator) Close() {
	c.closeAllWatches()
}

func (c *Coordinator) closeAllWatches() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path, w := range c.watches {
		if err := w.Close(); err != nil {
			logging.Error("failed to close watch on %s: %v", path, err)
		}
		delete(c.watches, path)
	}
	metrics.WatchRootsActive.Set(0)
}

func (c *Coordinator) stopWatch(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.watches[path]; ok {
		if err := w.Close(); err != nil {
			logging.Error("failed to close watch on %s: %v", path, err)
		}
		delete(c.watches, path)
		metrics.WatchRootsActive.Set(float64(len(c.watches)))
	}
}

func failure(format string, args ...interface{}) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}
