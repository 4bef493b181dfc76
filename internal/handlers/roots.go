package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/watcher"
)

type rootRequest struct {
	Path string `json:"path"`
}

func decodeRootRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req rootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		http.Error(w, "Missing path", http.StatusBadRequest)
		return "", false
	}
	return path, true
}

// AddRootHandler registers a directory or ZIP archive as a watch root,
// scans it and starts a live watch for directories.
func (h *Handlers) AddRootHandler(w http.ResponseWriter, r *http.Request) {
	path, ok := decodeRootRequest(w, r)
	if !ok {
		return
	}

	result, err := h.coordinator.AddRoot(r.Context(), path)
	if err != nil {
		switch {
		case errors.Is(err, watcher.ErrAlreadyWatched):
			writeJSON(w, http.StatusConflict, result)
		case errors.Is(err, watcher.ErrUnsupportedRoot):
			writeJSON(w, http.StatusBadRequest, result)
		default:
			logging.Error("Failed to add watch root %s: %v", path, err)
			writeJSON(w, http.StatusInternalServerError, result)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RemoveRootHandler stops watching a root. Already-indexed images are
// kept in the catalog.
func (h *Handlers) RemoveRootHandler(w http.ResponseWriter, r *http.Request) {
	path, ok := decodeRootRequest(w, r)
	if !ok {
		return
	}

	result, err := h.coordinator.RemoveRoot(r.Context(), path)
	if err != nil {
		logging.Error("Failed to remove watch root %s: %v", path, err)
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	if !result.Success {
		writeJSON(w, http.StatusNotFound, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListRootsHandler returns the persisted watch roots plus scan timing
// statistics.
func (h *Handlers) ListRootsHandler(w http.ResponseWriter, r *http.Request) {
	roots, err := h.store.ListWatchRoots(r.Context())
	if err != nil {
		logging.Error("Failed to list watch roots: %v", err)
		http.Error(w, "Failed to list watch roots", http.StatusInternalServerError)
		return
	}

	stats := h.coordinator.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roots": roots,
		"stats": map[string]interface{}{
			"lastScanStart":    stats.LastScanStart,
			"lastScanDuration": stats.LastScanDuration.String(),
			"lastScanFiles":    stats.LastScanFiles,
			"totalScans":       stats.TotalScans,
			"totalFiles":       stats.TotalFiles,
			"averageDuration":  stats.AverageDuration().String(),
		},
	})
}
