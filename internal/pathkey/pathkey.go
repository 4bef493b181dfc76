package pathkey

import (
	"path/filepath"
	"strings"
)

// Separator joins an archive path and an entry name in a composite key.
// It must never appear in a legitimate filesystem path.
const Separator = "::"

// Ref identifies one indexed image: either a file on disk, or a single
// entry inside a ZIP archive. A Ref with an empty Entry is a plain
// filesystem image.
type Ref struct {
	// Path is the absolute filesystem path of the image, or of the
	// containing archive when Entry is set.
	Path string

	// Entry is the name of the member inside the archive, empty for
	// filesystem images.
	Entry string
}

// File returns a Ref for a plain filesystem image.
func File(path string) Ref {
	return Ref{Path: path}
}

// ArchiveEntry returns a Ref for a member of a ZIP archive.
func ArchiveEntry(archivePath, entry string) Ref {
	return Ref{Path: archivePath, Entry: entry}
}

// IsArchiveEntry reports whether r refers to a member of an archive.
func (r Ref) IsArchiveEntry() bool {
	return r.Entry != ""
}

// Key serializes r to its storage form: the bare path for filesystem
// images, "<path>::<entry>" for archive members.
func (r Ref) Key() string {
	if r.Entry == "" {
		return r.Path
	}
	return r.Path + Separator + r.Entry
}

// Filename returns the base name of the image, taken from the entry name
// for archive members. Entry names always use forward slashes regardless
// of platform.
func (r Ref) Filename() string {
	if r.Entry != "" {
		return r.Entry[strings.LastIndex(r.Entry, "/")+1:]
	}
	return filepath.Base(r.Path)
}

// Parse deserializes a storage key back into a Ref. The key is split on
// the FIRST occurrence of the separator only; entry names may themselves
// contain "::".
func Parse(key string) Ref {
	if i := strings.Index(key, Separator); i >= 0 {
		return Ref{Path: key[:i], Entry: key[i+len(Separator):]}
	}
	return Ref{Path: key}
}

// NormalizeSlashes converts backslashes to forward slashes. Delete events
// can arrive with either separator depending on platform, so lookups try
// both spellings.
func NormalizeSlashes(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
