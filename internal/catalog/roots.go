package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrRootExists is returned when a watch root path is already persisted.
var ErrRootExists = errors.New("watch root already registered")

// AddWatchRoot persists a new watched directory or ZIP. Returns
// ErrRootExists for a duplicate path.
func (s *Store) AddWatchRoot(ctx context.Context, path string, recursive bool) (*WatchRoot, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_root", start, err) }()

	if path == "" {
		err = errors.New("watch root path is required")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	result, execErr := s.db.ExecContext(ctx, `
		INSERT INTO watch_roots (path, recursive, active, date_added)
		VALUES (?, ?, 1, ?)
	`, path, boolToInt(recursive), now.Unix())
	if execErr != nil {
		var sqliteErr sqlite3.Error
		if errors.As(execErr, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			err = fmt.Errorf("%w: %s", ErrRootExists, path)
			return nil, err
		}
		err = fmt.Errorf("failed to persist watch root: %w", execErr)
		return nil, err
	}

	id, idErr := result.LastInsertId()
	if idErr != nil {
		err = idErr
		return nil, err
	}

	return &WatchRoot{
		ID:        id,
		Path:      path,
		Recursive: recursive,
		Active:    true,
		DateAdded: now,
	}, nil
}

// RemoveWatchRoot deletes a persisted root. Indexed images for that root
// are kept; only monitoring stops. Returns the number of roots removed.
func (s *Store) RemoveWatchRoot(ctx context.Context, path string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_root", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := s.db.ExecContext(ctx, "DELETE FROM watch_roots WHERE path = ?", path)
	if execErr != nil {
		err = fmt.Errorf("failed to remove watch root: %w", execErr)
		return 0, err
	}
	return result.RowsAffected()
}

// ListWatchRoots returns every persisted root, oldest first.
func (s *Store) ListWatchRoots(ctx context.Context) ([]WatchRoot, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_roots", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, queryErr := s.db.QueryContext(ctx, `
		SELECT id, path, recursive, active, date_added
		FROM watch_roots ORDER BY date_added ASC, id ASC
	`)
	if queryErr != nil {
		err = fmt.Errorf("failed to list watch roots: %w", queryErr)
		return nil, err
	}
	defer rows.Close()

	var roots []WatchRoot
	for rows.Next() {
		var r WatchRoot
		var recursive, active int
		var dateAdded int64
		if scanErr := rows.Scan(&r.ID, &r.Path, &recursive, &active, &dateAdded); scanErr != nil {
			err = fmt.Errorf("failed to scan watch root: %w", scanErr)
			return nil, err
		}
		r.Recursive = recursive != 0
		r.Active = active != 0
		r.DateAdded = time.Unix(dateAdded, 0)
		roots = append(roots, r)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return roots, nil
}
