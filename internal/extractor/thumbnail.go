package extractor

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	// Register webp decoding; imaging covers jpeg/png/gif/tiff/bmp.
	_ "golang.org/x/image/webp"
)

const (
	thumbnailSize    = 300
	thumbnailQuality = 80
)

// ensureThumbnail writes the 300x300 center-cropped JPEG thumbnail for
// an image at its deterministic path. Regeneration is skipped when the
// file already exists, so the whole thumbnail directory is a rebuildable
// cache.
func (w *Worker) ensureThumbnail(id int64, src image.Image) (string, error) {
	path := filepath.Join(w.thumbDir, fmt.Sprintf("thumb_%d.jpg", id))

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	thumb := imaging.Fill(src, thumbnailSize, thumbnailSize, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(thumb, path, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return "", err
	}
	return path, nil
}
