package mediatypes

import (
	"path/filepath"
	"strings"
)

// imageExtensions is the set of file extensions the catalog indexes.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".tiff": true,
	".bmp":  true,
}

// IsImage reports whether path has a supported image extension.
// Matching is case-insensitive.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsArchive reports whether path has a supported archive extension.
func IsArchive(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".zip"
}

// ImageExtensions returns the supported image extensions (lowercase, with dot).
func ImageExtensions() []string {
	exts := make([]string, 0, len(imageExtensions))
	for ext := range imageExtensions {
		exts = append(exts, ext)
	}
	return exts
}
