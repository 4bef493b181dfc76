package catalog

import (
	"context"
	"fmt"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// ClearAll removes every image from the catalog; annotation and AI rows
// cascade. Watch roots are kept so a rebuild can re-scan them. Returns
// the number of images removed.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_all", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, execErr := s.db.ExecContext(ctx, "DELETE FROM images")
	if execErr != nil {
		err = fmt.Errorf("failed to clear catalog: %w", execErr)
		return 0, err
	}

	removed, raErr := result.RowsAffected()
	if raErr != nil {
		err = raErr
		return 0, err
	}

	metrics.ImagesIndexed.Set(0)
	logging.Info("Catalog cleared: %d images removed", removed)
	return removed, nil
}

// ClearAllFavorites resets every favorite flag. Returns the number of
// annotations changed.
func (s *Store) ClearAllFavorites(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_favorites", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := s.db.ExecContext(ctx,
		"UPDATE user_metadata SET is_favorite = 0 WHERE is_favorite = 1")
	if execErr != nil {
		err = fmt.Errorf("failed to clear favorites: %w", execErr)
		return 0, err
	}
	return result.RowsAffected()
}

// ClearAllNsfw resets every NSFW flag. Returns the number of annotations
// changed.
func (s *Store) ClearAllNsfw(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_nsfw", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := s.db.ExecContext(ctx,
		"UPDATE user_metadata SET is_nsfw = 0 WHERE is_nsfw = 1")
	if execErr != nil {
		err = fmt.Errorf("failed to clear NSFW flags: %w", execErr)
		return 0, err
	}
	return result.RowsAffected()
}
