package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/extractor"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/notify"
	"photo-catalog/internal/watcher"
)

// Config carries handler settings that do not belong to any dependency.
type Config struct {
	ThumbnailDir string
	Version      string
}

// Handlers holds the dependencies for all HTTP route handlers.
type Handlers struct {
	store       *catalog.Store
	coordinator *watcher.Coordinator
	worker      *extractor.Worker
	hub         *notify.Hub
	config      Config
}

// New creates a new Handlers instance with the given dependencies.
func New(store *catalog.Store, coordinator *watcher.Coordinator, worker *extractor.Worker, hub *notify.Hub, config Config) *Handlers {
	return &Handlers{
		store:       store,
		coordinator: coordinator,
		worker:      worker,
		hub:         hub,
		config:      config,
	}
}

// RegisterRoutes attaches every API route to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/photos", h.ListPhotosHandler).Methods("GET")
	r.HandleFunc("/api/search", h.SearchHandler).Methods("GET")
	r.HandleFunc("/api/photos/{id:[0-9]+}/metadata", h.PhotoMetadataHandler).Methods("GET")
	r.HandleFunc("/api/photos/{id:[0-9]+}/annotation", h.UpdateAnnotationHandler).Methods("PATCH")
	r.HandleFunc("/api/folders", h.FolderTreeHandler).Methods("GET")
	r.HandleFunc("/api/rawtags", h.RawTagsHandler).Methods("GET")

	r.HandleFunc("/api/roots", h.ListRootsHandler).Methods("GET")
	r.HandleFunc("/api/roots", h.AddRootHandler).Methods("POST")
	r.HandleFunc("/api/roots", h.RemoveRootHandler).Methods("DELETE")

	r.HandleFunc("/api/catalog/clear", h.ClearCatalogHandler).Methods("POST")
	r.HandleFunc("/api/catalog/favorites", h.ClearFavoritesHandler).Methods("POST")
	r.HandleFunc("/api/catalog/nsfw", h.ClearNsfwHandler).Methods("POST")
	r.HandleFunc("/api/catalog/rebuild", h.RebuildHandler).Methods("POST")
	r.HandleFunc("/api/catalog/rescan", h.RescanHandler).Methods("POST")

	r.HandleFunc("/ws", h.hub.ServeWS)
	r.HandleFunc("/health", h.HealthHandler).Methods("GET")
	r.HandleFunc("/api/version", h.VersionHandler).Methods("GET")

	r.PathPrefix("/thumbnails/").Handler(
		http.StripPrefix("/thumbnails/", http.FileServer(http.Dir(h.config.ThumbnailDir))))
}

// writeJSON encodes v as the response body with the JSON content type.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response: %v", err)
	}
}

// HealthHandler reports liveness plus the current catalog size.
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountImages(r.Context())
	if err != nil {
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"images": count,
	})
}

// VersionHandler reports the build version.
func (h *Handlers) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.config.Version})
}
