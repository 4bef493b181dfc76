package exiftags

// SnapshotSizeCeiling is the largest tag value (in bytes) kept in the
// persisted snapshot. Anything bigger is almost certainly an embedded
// binary blob rendered as text.
const SnapshotSizeCeiling = 10 * 1024

// binaryFields are tags that hold binary payloads (thumbnails, color
// profiles, vendor blobs) and are never worth persisting.
var binaryFields = map[string]bool{
	"MakerNote":         true,
	"ICC_Profile":       true,
	"ThumbnailImage":    true,
	"PreviewImage":      true,
	"JPEGThumbnail":     true,
	"InterColorProfile": true,
}

// FilteredSnapshot returns a copy of tags suitable for persistence:
// known-binary fields and values over the size ceiling are dropped.
func FilteredSnapshot(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for name, value := range tags {
		if binaryFields[name] {
			continue
		}
		if len(value) > SnapshotSizeCeiling {
			continue
		}
		out[name] = value
	}
	return out
}
