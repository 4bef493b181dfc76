package exiftags

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// pngSignature is the fixed 8-byte header of every PNG file.
var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Parse extracts embedded tag data from raw image bytes as a flat
// name -> value map. PNG files yield their text chunks (where generation
// tools store the "parameters" block); everything else is parsed as EXIF.
// Parsing is best-effort: unreadable tag data yields an empty map, never
// an error.
func Parse(data []byte) map[string]string {
	if bytes.HasPrefix(data, pngSignature) {
		return parsePNGText(data)
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return map[string]string{}
	}

	w := &tagWalker{tags: make(map[string]string)}
	// Walk never returns an error from our walker.
	_ = x.Walk(w)
	return w.tags
}

// tagWalker collects every EXIF field into a string map.
type tagWalker struct {
	tags map[string]string
}

func (w *tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if v := tagValue(tag); v != "" {
		w.tags[string(name)] = v
	}
	return nil
}

// tagValue renders a tag as text. ASCII tags decode directly; undefined
// format tags (UserComment carries a charset prefix) are salvaged when
// their payload is printable.
func tagValue(tag *tiff.Tag) string {
	if s, err := tag.StringVal(); err == nil {
		return strings.Trim(s, "\x00")
	}

	v := string(tag.Val)
	for _, prefix := range []string{"ASCII\x00\x00\x00", "UNICODE\x00", "\x00\x00\x00\x00\x00\x00\x00\x00"} {
		v = strings.TrimPrefix(v, prefix)
	}
	v = strings.Trim(v, "\x00")
	if v != "" && isMostlyPrintable(v) {
		return v
	}

	return strings.Trim(tag.String(), `"`)
}

func isMostlyPrintable(s string) bool {
	if s == "" {
		return false
	}
	printable := 0
	for _, r := range s {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	return printable*10 >= len([]rune(s))*9
}
