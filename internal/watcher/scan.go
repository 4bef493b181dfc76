package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"photo-catalog/internal/archive"
	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/pathkey"
)

// scanRoot bulk-ingests one root and records scan statistics. Returns
// the number of newly indexed images.
func (c *Coordinator) scanRoot(ctx context.Context, root string, isDir bool) (int, error) {
	start := time.Now()

	var count int
	var err error
	if isDir {
		count, err = c.scanDirectory(ctx, root)
	} else {
		count, err = c.ingestArchive(ctx, root)
	}

	duration := time.Since(start)
	metrics.ScanRunsTotal.Inc()
	metrics.ScanDuration.Observe(duration.Seconds())
	metrics.ScanFilesDiscovered.Add(float64(count))

	c.mu.Lock()
	c.stats.LastScanStart = start
	c.stats.LastScanDuration = duration
	c.stats.LastScanFiles = count
	c.stats.TotalScans++
	c.stats.TotalFiles += count
	c.stats.TotalDuration += duration
	c.mu.Unlock()

	logging.Debug("scan of %s finished: %d new images in %v", root, count, duration)
	return count, err
}

// scanDirectory walks root recursively, ingesting supported images and
// the contents of any ZIP archives it encounters.
func (c *Coordinator) scanDirectory(ctx context.Context, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logging.Warn("scan cannot access %s: %v", path, walkErr)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		switch {
		case mediatypes.IsImage(path):
			added, err := c.ingestFile(ctx, path)
			if err != nil {
				logging.Warn("failed to ingest %s: %v", path, err)
				return nil
			}
			if added {
				count++
			}
		case mediatypes.IsArchive(path):
			n, err := c.ingestArchive(ctx, path)
			if err != nil {
				logging.Warn("failed to ingest archive %s: %v", path, err)
				return nil
			}
			count += n
		}
		return nil
	})
	return count, err
}

// ingestFile indexes a single filesystem image and queues it for
// enrichment. An already-indexed path is refreshed but NOT re-enqueued,
// so concurrent discovery cannot produce duplicate enrichment jobs.
// Returns whether the image was new.
func (c *Coordinator) ingestFile(ctx context.Context, path string) (bool, error) {
	_, err := c.store.GetImageByPath(ctx, path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	ref := pathkey.File(path)
	mtime := info.ModTime()
	id, err := c.store.UpsertImage(ctx, catalog.NewImage{
		Path:      ref.Key(),
		Filename:  ref.Filename(),
		FileSize:  info.Size(),
		DateTaken: &mtime,
	})
	if err != nil {
		return false, err
	}

	c.worker.Enqueue(id, ref)
	return true, nil
}

// ingestArchive indexes every image entry of a ZIP under composite path
// keys and queues the new ones for enrichment. Archives are treated as
// static: no live watch is installed for them.
func (c *Coordinator) ingestArchive(ctx context.Context, zipPath string) (int, error) {
	entries, err := archive.ListImageEntries(zipPath)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		return 0, err
	}
	mtime := info.ModTime()

	count := 0
	for _, entry := range entries {
		ref := pathkey.ArchiveEntry(zipPath, entry.Name)

		if _, lookupErr := c.store.GetImageByPath(ctx, ref.Key()); lookupErr == nil {
			continue
		} else if !errors.Is(lookupErr, catalog.ErrNotFound) {
			return count, lookupErr
		}

		id, upsertErr := c.store.UpsertImage(ctx, catalog.NewImage{
			Path:        ref.Key(),
			Filename:    ref.Filename(),
			FileSize:    entry.Size,
			DateTaken:   &mtime,
			IsArchive:   true,
			ArchivePath: zipPath,
		})
		if upsertErr != nil {
			logging.Warn("failed to index %s: %v", ref.Key(), upsertErr)
			continue
		}

		c.worker.Enqueue(id, ref)
		count++
	}

	return count, nil
}

// installWatch starts a live fsnotify watch over root and all of its
// subdirectories, feeding events into the reconciliation loop.
func (c *Coordinator) installWatch(root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// fsnotify watches are not recursive; register every subdirectory.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		if closeErr := w.Close(); closeErr != nil {
			logging.Error("failed to close partial watch: %v", closeErr)
		}
		return err
	}

	c.mu.Lock()
	c.watches[root] = w
	metrics.WatchRootsActive.Set(float64(len(c.watches)))
	c.mu.Unlock()

	go c.watchLoop(root, w)
	return nil
}

// watchLoop reconciles one root's filesystem events into the catalog.
// Errors are logged and counted; the loop itself never dies on them.
func (c *Coordinator) watchLoop(root string, w *fsnotify.Watcher) {
	ctx := context.Background()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			c.handleEvent(ctx, w, event)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			metrics.WatchEventErrors.Inc()
			logging.Error("watch error on %s: %v", root, err)
		}
	}
}

func (c *Coordinator) handleEvent(ctx context.Context, w *fsnotify.Watcher, event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			// Created and removed before we could look; nothing to do.
			return
		}

		if info.IsDir() {
			// New subdirectory: watch it and ingest whatever it already
			// contains (files may have been moved in wholesale).
			if err := w.Add(event.Name); err != nil {
				metrics.WatchEventErrors.Inc()
				logging.Error("failed to watch new directory %s: %v", event.Name, err)
			}
			if n, err := c.scanDirectory(ctx, event.Name); err == nil && n > 0 {
				c.notifyChanged()
			}
			return
		}

		var added bool
		switch {
		case mediatypes.IsImage(event.Name):
			var err error
			added, err = c.ingestFile(ctx, event.Name)
			if err != nil {
				metrics.WatchEventErrors.Inc()
				logging.Warn("failed to ingest created file %s: %v", event.Name, err)
			}
		case mediatypes.IsArchive(event.Name):
			n, err := c.ingestArchive(ctx, event.Name)
			if err != nil {
				metrics.WatchEventErrors.Inc()
				logging.Warn("failed to ingest created archive %s: %v", event.Name, err)
			}
			added = n > 0
		}
		if added {
			c.notifyChanged()
		}

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// The path is gone, so its former type is unknowable: try a
		// single-image delete first, then a prefix delete that covers
		// directories and archives.
		removed, err := c.store.DeleteImageByPath(ctx, event.Name)
		if err != nil {
			metrics.WatchEventErrors.Inc()
			logging.Error("failed to delete %s: %v", event.Name, err)
			return
		}
		if removed == 0 {
			removed, err = c.store.DeleteImagesByPrefix(ctx, event.Name+string(os.PathSeparator))
			if err != nil {
				metrics.WatchEventErrors.Inc()
				logging.Error("failed to delete under %s: %v", event.Name, err)
				return
			}
			if extra, zipErr := c.store.DeleteImagesByPrefix(ctx, event.Name+pathkey.Separator); zipErr == nil {
				removed += extra
			}
		}
		if removed > 0 {
			logging.Debug("removed %d images for vanished path %s", removed, event.Name)
			c.notifyChanged()
		}
	}
}
