package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-catalog/internal/pathkey"
)

// UpsertImage inserts or refreshes an image by path key and returns the
// row's id. Re-discovering a known path refreshes the basic fields but
// keeps the id stable, so annotation and AI rows keyed by it survive.
func (s *Store) UpsertImage(ctx context.Context, img NewImage) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_image", start, err) }()

	if img.Path == "" {
		err = errors.New("image path is required")
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var dateTaken interface{}
	if img.DateTaken != nil {
		dateTaken = img.DateTaken.Unix()
	}

	var archivePath interface{}
	if img.ArchivePath != "" {
		archivePath = img.ArchivePath
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO images (path, filename, date_taken, file_size, is_archive, archive_path)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			file_size = excluded.file_size,
			date_taken = COALESCE(images.date_taken, excluded.date_taken)
	`, img.Path, img.Filename, dateTaken, img.FileSize, boolToInt(img.IsArchive), archivePath)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert image: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM images WHERE path = ?", img.Path).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to read back image id: %w", err)
	}
	return id, nil
}

// GetImageByPath looks up one image by its exact path key. Returns
// ErrNotFound when the path is not indexed.
func (s *Store) GetImageByPath(ctx context.Context, path string) (*ImageView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, imageViewSelect+" WHERE i.path = ?", path)
	view, err := scanImageView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

// DeleteImageByPath removes the image at the given path key; annotation
// and AI rows cascade with it. Delete events can arrive with either
// slash convention, so both the raw and the forward-slash-normalized
// spelling are tried before concluding the path is unknown. Returns the
// number of image rows removed (0 or 1).
func (s *Store) DeleteImageByPath(ctx context.Context, path string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_image", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	candidates := []string{path}
	if normalized := pathkey.NormalizeSlashes(path); normalized != path {
		candidates = append(candidates, normalized)
	}

	for _, candidate := range candidates {
		var result sql.Result
		result, err = s.db.ExecContext(ctx, "DELETE FROM images WHERE path = ?", candidate)
		if err != nil {
			return 0, fmt.Errorf("failed to delete image: %w", err)
		}
		var removed int64
		removed, err = result.RowsAffected()
		if err != nil {
			return 0, err
		}
		if removed > 0 {
			return removed, nil
		}
	}
	return 0, nil
}

// DeleteImagesByPrefix removes every image whose path key starts with
// the given prefix, plus archive entries contained in that exact path.
// Used when a whole directory or archive disappears.
func (s *Store) DeleteImagesByPrefix(ctx context.Context, prefix string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_image", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var result sql.Result
	result, err = s.db.ExecContext(ctx,
		`DELETE FROM images WHERE path LIKE ? ESCAPE '\' OR archive_path = ?`,
		escapeLike(prefix)+"%", prefix,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete images under %s: %w", prefix, err)
	}
	return result.RowsAffected()
}

// UpdateEnrichment applies the derived fields produced by an extraction
// pass. Nil fields are left untouched. The write is conditional on the
// id still existing: enrichment racing a delete is a silent no-op.
func (s *Store) UpdateEnrichment(ctx context.Context, id int64, e Enrichment) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_enrichment", start, err) }()

	var sets []string
	var args []interface{}

	if e.DateTaken != nil {
		sets = append(sets, "date_taken = ?")
		args = append(args, e.DateTaken.Unix())
	}
	if e.Width != nil {
		sets = append(sets, "width = ?")
		args = append(args, *e.Width)
	}
	if e.Height != nil {
		sets = append(sets, "height = ?")
		args = append(args, *e.Height)
	}
	if e.ThumbnailPath != nil {
		sets = append(sets, "thumbnail_path = ?")
		args = append(args, *e.ThumbnailPath)
	}

	if len(sets) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	args = append(args, id)
	_, err = s.db.ExecContext(ctx,
		"UPDATE images SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrichment for image %d: %w", id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLike escapes LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
