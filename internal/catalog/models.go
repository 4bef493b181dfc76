package catalog

import (
	"time"

	"photo-catalog/internal/aiparams"
)

// NewImage is the bare record written at discovery time, before any
// enrichment has run.
type NewImage struct {
	// Path is the unique path key: a bare absolute path, or the
	// "<archive>::<entry>" composite for ZIP members.
	Path        string
	Filename    string
	FileSize    int64
	DateTaken   *time.Time // initial guess (file mtime); refined by enrichment
	IsArchive   bool
	ArchivePath string // containing ZIP, empty for filesystem images
}

// Enrichment carries the derived fields written after extraction. Nil
// fields are left untouched.
type Enrichment struct {
	DateTaken     *time.Time
	Width         *int
	Height        *int
	ThumbnailPath *string
}

// ImageView is one row of a gallery query: the image joined with its
// annotation, defaulted when no annotation row exists.
type ImageView struct {
	ID            int64      `json:"id"`
	Path          string     `json:"path"`
	Filename      string     `json:"filename"`
	DateTaken     *time.Time `json:"dateTaken,omitempty"`
	DateAdded     time.Time  `json:"dateAdded"`
	FileSize      int64      `json:"fileSize"`
	Width         *int       `json:"width,omitempty"`
	Height        *int       `json:"height,omitempty"`
	ThumbnailPath string     `json:"thumbnailPath,omitempty"`
	IsArchive     bool       `json:"isArchive"`
	ArchivePath   string     `json:"archivePath,omitempty"`
	IsFavorite    bool       `json:"isFavorite"`
	IsNsfw        bool       `json:"isNsfw"`
	CustomTags    string     `json:"customTags,omitempty"`
	Rating        *int       `json:"rating,omitempty"`
}

// AnnotationUpdate is a partial write to an image's annotation. Nil
// fields are left unchanged; a non-nil Rating must be in [1,5].
type AnnotationUpdate struct {
	IsFavorite *bool   `json:"isFavorite,omitempty"`
	IsNsfw     *bool   `json:"isNsfw,omitempty"`
	CustomTags *string `json:"customTags,omitempty"`
	Rating     *int    `json:"rating,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// Annotation is the stored user annotation for one image.
type Annotation struct {
	ImageID    int64  `json:"imageId"`
	IsFavorite bool   `json:"isFavorite"`
	IsNsfw     bool   `json:"isNsfw"`
	CustomTags string `json:"customTags,omitempty"`
	Rating     *int   `json:"rating,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// PhotoMetadata is the full joined record for one image: the image row,
// its annotation (defaulted when absent) and its AI metadata (nil when
// absent).
type PhotoMetadata struct {
	ImageView
	Notes   string            `json:"notes,omitempty"`
	AI      *aiparams.Params  `json:"ai,omitempty"`
	RawTags map[string]string `json:"rawTags,omitempty"`
}

// WatchRoot is one persisted watched directory or ZIP file.
type WatchRoot struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Recursive bool      `json:"recursive"`
	Active    bool      `json:"active"`
	DateAdded time.Time `json:"dateAdded"`
}

// FolderNode is one node of the hierarchical folder tree. Count is the
// number of images in this folder plus all of its descendants.
type FolderNode struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Count    int           `json:"count"`
	Expanded bool          `json:"expanded"`
	Children []*FolderNode `json:"children,omitempty"`
}
