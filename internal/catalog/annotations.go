package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertAnnotation creates the annotation row for an image if absent and
// applies only the supplied fields. A non-nil rating outside [1,5] is
// rejected with ErrInvalidRating before anything is written; an unknown
// image id is rejected with ErrNotFound.
func (s *Store) UpsertAnnotation(ctx context.Context, imageID int64, update AnnotationUpdate) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_annotation", start, err) }()

	if update.Rating != nil && (*update.Rating < 1 || *update.Rating > 5) {
		err = fmt.Errorf("%w: got %d", ErrInvalidRating, *update.Rating)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT 1 FROM images WHERE id = ?", imageID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: id %d", ErrNotFound, imageID)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to check image %d: %w", imageID, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_metadata (image_id) VALUES (?)", imageID)
	if err != nil {
		return fmt.Errorf("failed to create annotation row: %w", err)
	}

	var sets []string
	var args []interface{}

	if update.IsFavorite != nil {
		sets = append(sets, "is_favorite = ?")
		args = append(args, boolToInt(*update.IsFavorite))
	}
	if update.IsNsfw != nil {
		sets = append(sets, "is_nsfw = ?")
		args = append(args, boolToInt(*update.IsNsfw))
	}
	if update.CustomTags != nil {
		sets = append(sets, "custom_tags = ?")
		args = append(args, *update.CustomTags)
	}
	if update.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *update.Rating)
	}
	if update.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *update.Notes)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, imageID)
	_, err = s.db.ExecContext(ctx,
		"UPDATE user_metadata SET "+strings.Join(sets, ", ")+" WHERE image_id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update annotation for image %d: %w", imageID, err)
	}
	return nil
}

// GetAnnotation reads the stored annotation for one image. A missing row
// reads as the all-default annotation, not an error.
func (s *Store) GetAnnotation(ctx context.Context, imageID int64) (*Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a Annotation
	a.ImageID = imageID

	var isFavorite, isNsfw int
	var customTags, notes sql.NullString
	var rating sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT is_favorite, is_nsfw, custom_tags, rating, notes
		FROM user_metadata WHERE image_id = ?
	`, imageID).Scan(&isFavorite, &isNsfw, &customTags, &rating, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return &a, nil
	}
	if err != nil {
		return nil, err
	}

	a.IsFavorite = isFavorite != 0
	a.IsNsfw = isNsfw != 0
	if customTags.Valid {
		a.CustomTags = customTags.String
	}
	if rating.Valid {
		r := int(rating.Int64)
		a.Rating = &r
	}
	if notes.Valid {
		a.Notes = notes.String
	}
	return &a, nil
}
