package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

var (
	// ErrNotFound is returned when the referenced image does not exist.
	ErrNotFound = errors.New("image not found")

	// ErrInvalidRating is returned when a rating outside [1,5] is written.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Store is the persistent catalog: indexed images, user annotations,
// AI generation metadata and watched roots.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open opens (or creates) the catalog at dbPath and brings its schema up
// to date. The parent directory must already exist and be writable; use
// startup.LoadConfig() for directory validation before calling this.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Catalog path: %s", dbPath)

	// WAL so ingestion writes and UI reads can interleave; foreign keys
	// on so annotation/AI rows cascade with their image.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	// Allow multiple readers; WAL serializes the single writer.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.migrate(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after migration failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to migrate catalog schema: %w", err)
	}

	logging.Info("Catalog initialized successfully at %s", dbPath)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the catalog file path.
func (s *Store) Path() string {
	return s.dbPath
}

// CountImages returns the number of images currently indexed.
func (s *Store) CountImages(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&n)
	return n, err
}

// UpdateImageGauge refreshes the indexed-image gauge from the store.
func (s *Store) UpdateImageGauge(ctx context.Context) {
	n, err := s.CountImages(ctx)
	if err != nil {
		logging.Debug("image gauge refresh failed: %v", err)
		return
	}
	metrics.ImagesIndexed.Set(float64(n))
}

// recordQuery records store query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
