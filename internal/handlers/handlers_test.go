package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/extractor"
	"photo-catalog/internal/notify"
	"photo-catalog/internal/watcher"
)

type testEnv struct {
	store  *catalog.Store
	router *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := catalog.Open(context.Background(), filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	worker := extractor.New(store, filepath.Join(dir, "thumbs"))
	coordinator := watcher.New(store, worker)
	t.Cleanup(coordinator.Close)

	h := New(store, coordinator, worker, notify.NewHub(), Config{
		ThumbnailDir: filepath.Join(dir, "thumbs"),
		Version:      "test",
	})
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	return &testEnv{store: store, router: router}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedImage(t *testing.T, path string, taken time.Time) int64 {
	t.Helper()

	id, err := e.store.UpsertImage(context.Background(), catalog.NewImage{
		Path:      path,
		Filename:  filepath.Base(path),
		FileSize:  100,
		DateTaken: &taken,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", path, err)
	}
	return id
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func TestListPhotos(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	env.seedImage(t, "/photos/a.png", base)
	env.seedImage(t, "/photos/b.png", base.Add(time.Hour))

	rec := env.do(t, http.MethodGet, "/api/photos", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Photos []catalog.ImageView `json:"photos"`
		Count  int                 `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count != 2 || len(resp.Photos) != 2 {
		t.Fatalf("count = %d, photos = %d, want 2", resp.Count, len(resp.Photos))
	}
	// Default order is date taken, newest first.
	if resp.Photos[0].Filename != "b.png" {
		t.Errorf("first photo = %s, want b.png", resp.Photos[0].Filename)
	}
}

func TestListPhotosFavoriteFilter(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fav := env.seedImage(t, "/photos/fav.png", base)
	env.seedImage(t, "/photos/plain.png", base)

	isFav := true
	if err := env.store.UpsertAnnotation(context.Background(), fav,
		catalog.AnnotationUpdate{IsFavorite: &isFav}); err != nil {
		t.Fatalf("annotate: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/photos?favorite=true", nil)
	var resp struct {
		Photos []catalog.ImageView `json:"photos"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Photos) != 1 || resp.Photos[0].Filename != "fav.png" {
		t.Fatalf("favorite filter returned %+v", resp.Photos)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/api/search", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := env.do(t, http.MethodGet, "/api/search?q=%20", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("blank query: code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSearchFindsByFilename(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	env.seedImage(t, "/photos/sunset_beach.png", base)
	env.seedImage(t, "/photos/mountain.png", base)

	rec := env.do(t, http.MethodGet, "/api/search?q=sunset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp struct {
		Photos []catalog.ImageView `json:"photos"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Photos) != 1 || resp.Photos[0].Filename != "sunset_beach.png" {
		t.Fatalf("search returned %+v", resp.Photos)
	}
}

func TestPhotoMetadata(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.seedImage(t, "/photos/a.png", time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC))

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/photos/%d/metadata", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	var meta catalog.PhotoMetadata
	decodeBody(t, rec, &meta)
	if meta.ID != id || meta.Filename != "a.png" {
		t.Errorf("metadata = %+v", meta)
	}

	if rec := env.do(t, http.MethodGet, "/api/photos/9999/metadata", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing image: code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdateAnnotation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.seedImage(t, "/photos/a.png", time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC))

	rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/photos/%d/annotation", id),
		map[string]interface{}{"isFavorite": true, "rating": 4})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}

	ann, err := env.store.GetAnnotation(context.Background(), id)
	if err != nil {
		t.Fatalf("get annotation: %v", err)
	}
	if !ann.IsFavorite || ann.Rating == nil || *ann.Rating != 4 {
		t.Errorf("annotation = %+v", ann)
	}
}

func TestUpdateAnnotationErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.seedImage(t, "/photos/a.png", time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC))

	rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/photos/%d/annotation", id),
		map[string]interface{}{"rating": 6})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid rating: code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(t, http.MethodPatch, "/api/photos/9999/annotation",
		map[string]interface{}{"isFavorite": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing image: code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAddAndRemoveRoot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "one.png"))
	writePNG(t, filepath.Join(root, "two.png"))

	rec := env.do(t, http.MethodPost, "/api/roots", rootRequest{Path: root})
	if rec.Code != http.StatusOK {
		t.Fatalf("add root: code = %d, body %s", rec.Code, rec.Body.String())
	}
	var result watcher.Result
	decodeBody(t, rec, &result)
	if !result.Success || result.Count != 2 {
		t.Fatalf("result = %+v, want success with count 2", result)
	}

	if rec := env.do(t, http.MethodPost, "/api/roots", rootRequest{Path: root}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate root: code = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = env.do(t, http.MethodGet, "/api/roots", nil)
	var listing struct {
		Roots []catalog.WatchRoot `json:"roots"`
	}
	decodeBody(t, rec, &listing)
	if len(listing.Roots) != 1 {
		t.Fatalf("roots = %+v, want 1", listing.Roots)
	}

	if rec := env.do(t, http.MethodDelete, "/api/roots", rootRequest{Path: root}); rec.Code != http.StatusOK {
		t.Errorf("remove root: code = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/roots", rootRequest{Path: root}); rec.Code != http.StatusNotFound {
		t.Errorf("remove again: code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAddRootRejectsBadRequests(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if rec := env.do(t, http.MethodPost, "/api/roots", rootRequest{Path: ""}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty path: code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	plain := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(plain, []byte("text"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if rec := env.do(t, http.MethodPost, "/api/roots", rootRequest{Path: plain}); rec.Code != http.StatusBadRequest {
		t.Errorf("non-zip file: code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestClearEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	id := env.seedImage(t, "/photos/a.png", base)
	env.seedImage(t, "/photos/b.png", base)

	flag := true
	if err := env.store.UpsertAnnotation(context.Background(), id,
		catalog.AnnotationUpdate{IsFavorite: &flag, IsNsfw: &flag}); err != nil {
		t.Fatalf("annotate: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/catalog/favorites", nil)
	var favResp struct {
		Cleared int64 `json:"cleared"`
	}
	decodeBody(t, rec, &favResp)
	if favResp.Cleared != 1 {
		t.Errorf("favorites cleared = %d, want 1", favResp.Cleared)
	}

	rec = env.do(t, http.MethodPost, "/api/catalog/clear", nil)
	var clearResp struct {
		Removed int64 `json:"removed"`
	}
	decodeBody(t, rec, &clearResp)
	if clearResp.Removed != 2 {
		t.Errorf("removed = %d, want 2", clearResp.Removed)
	}

	count, err := env.store.CountImages(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count after clear = %d, want 0", count)
	}
}

func TestRawTagsHandler(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/api/rawtags", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing path: code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := env.do(t, http.MethodGet, "/api/rawtags?path=/nope/gone.png", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unreadable path: code = %d, want %d", rec.Code, http.StatusNotFound)
	}

	path := filepath.Join(t.TempDir(), "plain.png")
	writePNG(t, path)
	rec := env.do(t, http.MethodGet, "/api/rawtags?path="+path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Path string            `json:"path"`
		Tags map[string]string `json:"tags"`
	}
	decodeBody(t, rec, &resp)
	if resp.Path != path {
		t.Errorf("path = %s, want %s", resp.Path, path)
	}
}

func TestHealthAndVersion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: code = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/version", nil)
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["version"] != "test" {
		t.Errorf("version = %q, want test", resp["version"])
	}
}
