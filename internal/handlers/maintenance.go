package handlers

import (
	"net/http"

	"photo-catalog/internal/logging"
)

// ClearCatalogHandler drops every pending extraction and every indexed
// image. Watch roots are kept; use rebuild to re-index them.
func (h *Handlers) ClearCatalogHandler(w http.ResponseWriter, r *http.Request) {
	dropped := h.worker.ClearQueue()
	removed, err := h.store.ClearAll(r.Context())
	if err != nil {
		logging.Error("Failed to clear catalog: %v", err)
		http.Error(w, "Failed to clear catalog", http.StatusInternalServerError)
		return
	}

	h.hub.CatalogChanged()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed":        removed,
		"queued_dropped": dropped,
	})
}

// ClearFavoritesHandler resets the favorite flag on every image.
func (h *Handlers) ClearFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.store.ClearAllFavorites(r.Context())
	if err != nil {
		logging.Error("Failed to clear favorites: %v", err)
		http.Error(w, "Failed to clear favorites", http.StatusInternalServerError)
		return
	}

	h.hub.CatalogChanged()
	writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": cleared})
}

// ClearNsfwHandler resets the NSFW flag on every image.
func (h *Handlers) ClearNsfwHandler(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.store.ClearAllNsfw(r.Context())
	if err != nil {
		logging.Error("Failed to clear NSFW flags: %v", err)
		http.Error(w, "Failed to clear NSFW flags", http.StatusInternalServerError)
		return
	}

	h.hub.CatalogChanged()
	writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": cleared})
}

// RebuildHandler wipes the catalog and re-indexes every persisted root
// from scratch.
func (h *Handlers) RebuildHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.coordinator.RebuildAll(r.Context())
	if err != nil {
		logging.Error("Failed to rebuild catalog: %v", err)
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RescanHandler walks every root looking for files added while no watch
// event fired (e.g. while the process was down).
func (h *Handlers) RescanHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.coordinator.RescanForNewFiles(r.Context())
	if err != nil {
		logging.Error("Failed to rescan roots: %v", err)
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
