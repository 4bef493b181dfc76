package exiftags

import (
	"strings"
	"time"
)

// dateFields are the tag names that can carry a capture timestamp, in
// priority order.
var dateFields = []string{
	"DateTimeOriginal",
	"CreateDate",
	"ModifyDate",
	"DateTime",
	"DateTimeDigitized",
}

// dateLayouts are the timestamp formats seen in embedded tag data.
// EXIF's colon-separated date is by far the most common.
var dateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05-07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// CaptureDate resolves the capture timestamp from a tag map, trying each
// candidate field in priority order and returning the first value that
// parses as a date. The second return is false when no field is usable.
func CaptureDate(tags map[string]string) (time.Time, bool) {
	for _, field := range dateFields {
		raw, ok := tags[field]
		if !ok {
			continue
		}
		if t, ok := parseDate(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
