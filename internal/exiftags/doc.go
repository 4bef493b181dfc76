// Package exiftags extracts embedded metadata from raw image bytes: EXIF
// fields for JPEG/TIFF/WebP, text chunks for PNG. It also resolves the
// capture timestamp from the extracted tags and produces the size-filtered
// snapshot persisted alongside AI generation metadata.
package exiftags
