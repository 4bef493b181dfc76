package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
)

// parseQueryOptions builds the catalog filter predicate from URL query
// parameters. Unknown or malformed values fall back to the defaults.
func parseQueryOptions(r *http.Request) catalog.QueryOptions {
	q := r.URL.Query()
	opts := catalog.QueryOptions{
		FavoriteOnly: q.Get("favorite") == "true",
		NsfwOnly:     q.Get("nsfw") == "true",
		ExcludeNsfw:  q.Get("excludeNsfw") == "true",
		Folders:      q["folder"],
		SortField:    catalog.SortField(q.Get("sort")),
		SortOrder:    catalog.SortOrder(strings.ToLower(q.Get("order"))),
	}

	if v := q.Get("from"); v != "" {
		if t, ok := parseTimeParam(v); ok {
			opts.DateFrom = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, ok := parseTimeParam(v); ok {
			opts.DateTo = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Offset = n
		}
	}
	return opts
}

func parseTimeParam(v string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ListPhotosHandler returns a filtered, sorted gallery page.
func (h *Handlers) ListPhotosHandler(w http.ResponseWriter, r *http.Request) {
	opts := parseQueryOptions(r)
	images, err := h.store.QueryImages(r.Context(), opts)
	if err != nil {
		logging.Error("Failed to query images: %v", err)
		http.Error(w, "Failed to query images", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"photos": images,
		"count":  len(images),
	})
}

// SearchHandler returns images matching the free-text query across
// filename, custom tags, AI prompt and AI model.
func (h *Handlers) SearchHandler(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("q"))
	if text == "" {
		http.Error(w, "Missing search query", http.StatusBadRequest)
		return
	}

	images, err := h.store.SearchImages(r.Context(), text, parseQueryOptions(r))
	if err != nil {
		logging.Error("Failed to search images: %v", err)
		http.Error(w, "Failed to search images", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"photos": images,
		"count":  len(images),
	})
}

// PhotoMetadataHandler returns the full joined record for one image.
func (h *Handlers) PhotoMetadataHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	meta, err := h.store.GetPhotoMetadata(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to load metadata for image %d: %v", id, err)
		http.Error(w, "Failed to load metadata", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// UpdateAnnotationHandler applies a partial annotation update. Fields
// absent from the request body are left unchanged.
func (h *Handlers) UpdateAnnotationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	var update catalog.AnnotationUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.UpsertAnnotation(r.Context(), id, update); err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidRating):
			http.Error(w, "Rating must be between 1 and 5", http.StatusBadRequest)
		case errors.Is(err, catalog.ErrNotFound):
			http.Error(w, "Image not found", http.StatusNotFound)
		default:
			logging.Error("Failed to update annotation for image %d: %v", id, err)
			http.Error(w, "Failed to update annotation", http.StatusInternalServerError)
		}
		return
	}

	h.hub.CatalogChanged()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// FolderTreeHandler returns the hierarchical folder tree across all
// watched roots.
func (h *Handlers) FolderTreeHandler(w http.ResponseWriter, r *http.Request) {
	tree, err := h.store.FolderTree(r.Context())
	if err != nil {
		logging.Error("Failed to build folder tree: %v", err)
		http.Error(w, "Failed to build folder tree", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"folders": tree})
}
