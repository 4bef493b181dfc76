package pathkey

import "testing"

// TestKeyRoundTrip tests serialization and parsing of image references.
func TestKeyRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  Ref
		key  string
	}{
		{
			name: "filesystem image",
			ref:  File("/photos/cat.jpg"),
			key:  "/photos/cat.jpg",
		},
		{
			name: "archive entry",
			ref:  ArchiveEntry("/photos/batch.zip", "a.png"),
			key:  "/photos/batch.zip::a.png",
		},
		{
			name: "nested archive entry",
			ref:  ArchiveEntry("/photos/batch.zip", "sub/c.jpg"),
			key:  "/photos/batch.zip::sub/c.jpg",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.ref.Key(); got != tt.key {
				t.Errorf("Key() = %q, want %q", got, tt.key)
			}
			if got := Parse(tt.key); got != tt.ref {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.key, got, tt.ref)
			}
		})
	}
}

// TestParseSplitsOnFirstSeparator tests that entry names containing the
// separator survive a round trip.
func TestParseSplitsOnFirstSeparator(t *testing.T) {
	t.Parallel()

	ref := Parse("/photos/batch.zip::weird::name.png")
	if ref.Path != "/photos/batch.zip" {
		t.Errorf("Path = %q, want %q", ref.Path, "/photos/batch.zip")
	}
	if ref.Entry != "weird::name.png" {
		t.Errorf("Entry = %q, want %q", ref.Entry, "weird::name.png")
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  Ref
		want string
	}{
		{"filesystem image", File("/photos/2024/cat.jpg"), "cat.jpg"},
		{"archive entry at root", ArchiveEntry("/p/b.zip", "a.png"), "a.png"},
		{"nested archive entry", ArchiveEntry("/p/b.zip", "sub/c.jpg"), "c.jpg"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.ref.Filename(); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsArchiveEntry(t *testing.T) {
	t.Parallel()

	if File("/a.png").IsArchiveEntry() {
		t.Error("filesystem ref reported as archive entry")
	}
	if !ArchiveEntry("/b.zip", "a.png").IsArchiveEntry() {
		t.Error("archive ref not reported as archive entry")
	}
}
