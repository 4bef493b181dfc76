package handlers

import (
	"net/http"
	"os"

	"photo-catalog/internal/archive"
	"photo-catalog/internal/exiftags"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/pathkey"
)

// RawTagsHandler re-reads the image on demand and returns every
// embedded tag, unfiltered. The persisted snapshot drops binary and
// oversized values; this endpoint exists for the cases where the user
// wants the rest.
func (h *Handlers) RawTagsHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("path")
	if key == "" {
		http.Error(w, "Missing path", http.StatusBadRequest)
		return
	}

	ref := pathkey.Parse(key)

	var data []byte
	var err error
	if ref.IsArchiveEntry() {
		data, err = archive.ExtractEntry(ref.Path, ref.Entry)
	} else {
		data, err = os.ReadFile(ref.Path)
	}
	if err != nil {
		logging.Warn("Failed to read %s for raw tags: %v", key, err)
		http.Error(w, "Image not readable", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"path": key,
		"tags": exiftags.Parse(data),
	})
}
