package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"photo-catalog/internal/mediatypes"
)

// Entry describes one image member of an archive.
type Entry struct {
	Name string
	Size int64
}

// ListImageEntries returns all image entries inside the ZIP at zipPath,
// skipping directory markers and unsupported extensions.
func ListImageEntries(zipPath string) ([]Entry, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer r.Close()

	var entries []Entry
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if !mediatypes.IsImage(f.Name) {
			continue
		}
		entries = append(entries, Entry{Name: f.Name, Size: int64(f.UncompressedSize64)})
	}

	return entries, nil
}

// ExtractEntry reads the named entry from the ZIP at zipPath into memory.
// The central directory is scanned until the first matching entry.
func ExtractEntry(zipPath, entry string) ([]byte, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entry {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s: %w", entry, err)
		}
		data, err := io.ReadAll(rc)
		if closeErr := rc.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %s: %w", entry, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("entry %s not found in %s", entry, zipPath)
}
