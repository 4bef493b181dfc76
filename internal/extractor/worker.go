package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"photo-catalog/internal/aiparams"
	"photo-catalog/internal/archive"
	"photo-catalog/internal/catalog"
	"photo-catalog/internal/exiftags"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/pathkey"
)

// job is one pending enrichment: the image's catalog id plus where to
// read its bytes from.
type job struct {
	id  int64
	ref pathkey.Ref
}

// Worker is the single-flight enrichment queue. Jobs drain strictly one
// at a time in enqueue order, bounding peak memory to one decoded image
// in flight. Per-item failures are logged and skipped; the queue never
// stops on them.
type Worker struct {
	store    *catalog.Store
	thumbDir string

	// onChange is notified after every successful enrichment.
	// Fire-and-forget: it must not block.
	onChange func()

	mu         sync.Mutex
	cond       *sync.Cond
	queue      []job
	processing bool
}

// New creates a Worker writing thumbnails under thumbDir.
func New(store *catalog.Store, thumbDir string) *Worker {
	w := &Worker{
		store:    store,
		thumbDir: thumbDir,
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// OnChange registers the catalog-changed callback. Must be set before
// the first Enqueue.
func (w *Worker) OnChange(fn func()) {
	w.onChange = fn
}

// Enqueue appends one image to the queue and starts the drain goroutine
// if it is idle. Safe to call from watch callbacks.
func (w *Worker) Enqueue(id int64, ref pathkey.Ref) {
	w.mu.Lock()
	w.queue = append(w.queue, job{id: id, ref: ref})
	metrics.ExtractionQueueDepth.Set(float64(len(w.queue)))
	if !w.processing {
		w.processing = true
		go w.drain()
	}
	w.mu.Unlock()
}

// ClearQueue discards every job that has not started yet and returns how
// many were dropped. An in-flight job is not interrupted. Called before
// destructive catalog clears so stale enrichment is never written for
// rows about to vanish.
func (w *Worker) ClearQueue() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	dropped := len(w.queue)
	w.queue = nil
	metrics.ExtractionQueueDepth.Set(0)
	if dropped > 0 {
		logging.Info("Extraction queue cleared: %d pending jobs dropped", dropped)
	}
	return dropped
}

// Wait blocks until the queue is empty and no job is in flight.
func (w *Worker) Wait() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.processing || len(w.queue) > 0 {
		w.cond.Wait()
	}
}

// drain processes jobs strictly one at a time, preserving enqueue order.
func (w *Worker) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.processing = false
			w.cond.Broadcast()
			w.mu.Unlock()
			return
		}
		next := w.queue[0]
		w.queue = w.queue[1:]
		metrics.ExtractionQueueDepth.Set(float64(len(w.queue)))
		w.mu.Unlock()

		w.process(next)
	}
}

// process runs one enrichment pass. Failures are contained to the item.
func (w *Worker) process(j job) {
	start := time.Now()
	err := w.enrich(context.Background(), j)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("failed").Inc()
		logging.Warn("enrichment failed for image %d (%s): %v", j.id, j.ref.Key(), err)
		return
	}

	metrics.ExtractionsTotal.WithLabelValues("enriched").Inc()
	logging.Debug("enriched image %d (%s) in %v", j.id, j.ref.Key(), time.Since(start))

	if w.onChange != nil {
		w.onChange()
	}
}

func (w *Worker) enrich(ctx context.Context, j job) error {
	data, fallbackTime, err := w.readImage(j.ref)
	if err != nil {
		return fmt.Errorf("failed to read image bytes: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	thumbPath, err := w.ensureThumbnail(j.id, img)
	if err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}

	tags := exiftags.Parse(data)

	// Capture date falls back to the file's (or the archive's) mtime so
	// it is never left permanently null.
	captured := fallbackTime
	if t, ok := exiftags.CaptureDate(tags); ok {
		captured = t
	}

	if err := w.store.UpdateEnrichment(ctx, j.id, catalog.Enrichment{
		DateTaken:     &captured,
		Width:         &width,
		Height:        &height,
		ThumbnailPath: &thumbPath,
	}); err != nil {
		return fmt.Errorf("failed to store enrichment: %w", err)
	}

	if params := aiparams.FromTags(tags); !params.IsEmpty() {
		if err := w.store.UpsertAIMetadata(ctx, j.id, params, exiftags.FilteredSnapshot(tags)); err != nil {
			return fmt.Errorf("failed to store AI metadata: %w", err)
		}
	}

	return nil
}

// readImage materializes the image bytes: a plain file read, or a single
// entry pulled out of its ZIP container. The returned time is the mtime
// of the file (or the container, for archive members), used as the
// capture-date fallback.
func (w *Worker) readImage(ref pathkey.Ref) ([]byte, time.Time, error) {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return nil, time.Time{}, err
	}

	if ref.IsArchiveEntry() {
		data, err := archive.ExtractEntry(ref.Path, ref.Entry)
		if err != nil {
			return nil, time.Time{}, err
		}
		return data, info.ModTime(), nil
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, info.ModTime(), nil
}
