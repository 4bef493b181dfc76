package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"photo-catalog/internal/aiparams"
)

// newTestStore opens a fresh catalog in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open test catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close test catalog: %v", err)
		}
	})
	return s
}

// insertImage adds one bare image record and returns its id.
func insertImage(t *testing.T, s *Store, path string, dateTaken time.Time) int64 {
	t.Helper()

	img := NewImage{
		Path:     path,
		Filename: filepath.Base(path),
		FileSize: 1234,
	}
	if !dateTaken.IsZero() {
		img.DateTaken = &dateTaken
	}

	id, err := s.UpsertImage(context.Background(), img)
	if err != nil {
		t.Fatalf("failed to insert image %s: %v", path, err)
	}
	return id
}

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestUpsertImageIDStable(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertImage(ctx, NewImage{Path: "/photos/a.png", Filename: "a.png", FileSize: 10})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Annotate before the re-discovery so we can verify the row survives.
	if err := s.UpsertAnnotation(ctx, first, AnnotationUpdate{IsFavorite: boolPtr(true)}); err != nil {
		t.Fatalf("annotation failed: %v", err)
	}

	second, err := s.UpsertImage(ctx, NewImage{Path: "/photos/a.png", Filename: "a.png", FileSize: 20})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if first != second {
		t.Errorf("upsert id changed: %d then %d", first, second)
	}

	n, err := s.CountImages(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("image count = %d, want 1", n)
	}

	view, err := s.GetImageByPath(ctx, "/photos/a.png")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if view.FileSize != 20 {
		t.Errorf("file size not refreshed: got %d, want 20", view.FileSize)
	}
	if !view.IsFavorite {
		t.Error("annotation lost across upsert")
	}
}

func TestUpsertImageRequiresPath(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if _, err := s.UpsertImage(context.Background(), NewImage{Filename: "a.png"}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestDeleteImageCascade(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	id := insertImage(t, s, "/photos/b.jpg", time.Time{})
	if err := s.UpsertAnnotation(ctx, id, AnnotationUpdate{Rating: intPtr(4)}); err != nil {
		t.Fatalf("annotation failed: %v", err)
	}
	if err := s.UpsertAIMetadata(ctx, id, aiparams.Params{Prompt: "a cat"}, nil); err != nil {
		t.Fatalf("AI metadata failed: %v", err)
	}

	removed, err := s.DeleteImageByPath(ctx, "/photos/b.jpg")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := s.GetPhotoMetadata(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("metadata after delete: err = %v, want ErrNotFound", err)
	}

	// The cascaded rows must be gone too, not just unreachable.
	var annotations, aiRows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM user_metadata WHERE image_id = ?", id).Scan(&annotations); err != nil {
		t.Fatalf("annotation count failed: %v", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM ai_metadata WHERE image_id = ?", id).Scan(&aiRows); err != nil {
		t.Fatalf("AI count failed: %v", err)
	}
	if annotations != 0 || aiRows != 0 {
		t.Errorf("cascade left %d annotation and %d AI rows", annotations, aiRows)
	}
}

func TestDeleteImageSlashNormalization(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	insertImage(t, s, "/photos/sub/c.png", time.Time{})

	// Delete events can arrive with backslashes on some platforms.
	removed, err := s.DeleteImageByPath(ctx, `\photos\sub\c.png`)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1 via normalized spelling", removed)
	}
}

func TestDeleteImageUnknownPath(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	removed, err := s.DeleteImageByPath(context.Background(), "/nowhere.png")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestUpdateEnrichment(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	id := insertImage(t, s, "/photos/d.png", time.Time{})

	taken := time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)
	err := s.UpdateEnrichment(ctx, id, Enrichment{
		DateTaken:     &taken,
		Width:         intPtr(512),
		Height:        intPtr(768),
		ThumbnailPath: strPtr("/thumbs/thumb_1.jpg"),
	})
	if err != nil {
		t.Fatalf("enrichment failed: %v", err)
	}

	view, err := s.GetImageByPath(ctx, "/photos/d.png")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if view.DateTaken == nil || !view.DateTaken.Equal(taken) {
		t.Errorf("date taken = %v, want %v", view.DateTaken, taken)
	}
	if view.Width == nil || *view.Width != 512 || view.Height == nil || *view.Height != 768 {
		t.Errorf("dimensions = %v x %v, want 512 x 768", view.Width, view.Height)
	}
	if view.ThumbnailPath != "/thumbs/thumb_1.jpg" {
		t.Errorf("thumbnail = %q", view.ThumbnailPath)
	}

	// Partial update touches only the supplied field.
	err = s.UpdateEnrichment(ctx, id, Enrichment{Width: intPtr(1024)})
	if err != nil {
		t.Fatalf("partial enrichment failed: %v", err)
	}
	view, err = s.GetImageByPath(ctx, "/photos/d.png")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if *view.Width != 1024 || *view.Height != 768 {
		t.Errorf("partial update wrong: %d x %d", *view.Width, *view.Height)
	}
}

func TestUpdateEnrichmentDeletedRow(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	id := insertImage(t, s, "/photos/gone.png", time.Time{})
	if _, err := s.DeleteImageByPath(ctx, "/photos/gone.png"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// Enrichment racing a delete must be a silent no-op.
	err := s.UpdateEnrichment(ctx, id, Enrichment{Width: intPtr(100)})
	if err != nil {
		t.Errorf("enrichment of deleted row errored: %v", err)
	}

	err = s.UpsertAIMetadata(ctx, id, aiparams.Params{Prompt: "x"}, nil)
	if err != nil {
		t.Errorf("AI write for deleted row errored: %v", err)
	}
	var aiRows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM ai_metadata WHERE image_id = ?", id).Scan(&aiRows); err != nil {
		t.Fatalf("AI count failed: %v", err)
	}
	if aiRows != 0 {
		t.Errorf("AI write for deleted row left %d rows", aiRows)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	// Re-running against an up-to-date catalog must be a no-op.
	if err := s.migrate(context.Background()); err != nil {
		t.Fatalf("re-migration failed: %v", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("version read failed: %v", err)
	}
	if version != migrations[len(migrations)-1].version {
		t.Errorf("schema version = %d, want %d", version, migrations[len(migrations)-1].version)
	}
}
