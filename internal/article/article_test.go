package article

import "testing"

func TestDisplayURL(t *testing.T) {
	if got := (Article{URL: "https://x.test/a"}).DisplayURL(); got != "https://x.test/a" {
		t.Errorf("DisplayURL = %q", got)
	}
	if got := (Article{}).DisplayURL(); got != FallbackURL {
		t.Errorf("missing url should fall back to %q, got %q", FallbackURL, got)
	}
}

func TestJoinImageURL(t *testing.T) {
	tests := []struct {
		location string
		path     string
		want     string
	}{
		{"https://cdn.test/", "/img.png", "https://cdn.test/img.png"},
		{"https://cdn.test", "img.png", "https://cdn.test/img.png"},
		{"https://cdn.test/", "img.png", "https://cdn.test/img.png"},
		{"https://cdn.test", "/img.png", "https://cdn.test/img.png"},
		{"", "img.png", "img.png"},
		{"https://cdn.test", "", ""},
	}
	for _, tt := range tests {
		if got := joinImageURL(tt.location, tt.path); got != tt.want {
			t.Errorf("joinImageURL(%q, %q) = %q, want %q", tt.location, tt.path, got, tt.want)
		}
	}
}

func TestThumbnailURL(t *testing.T) {
	devto := Article{SourceType: "devto", Title: "Hello, World!"}
	if got := devto.ThumbnailURL(); got != "https://picsum.photos/seed/catalog-hello-world/800/520" {
		t.Errorf("devto thumbnail = %q", got)
	}

	generic := Article{Thumbnail: &Thumbnail{Location: "https://cdn.test", Images: ThumbnailImages{Small: "small.jpg"}}}
	if got := generic.ThumbnailURL(); got != "https://cdn.test/small.jpg" {
		t.Errorf("generic thumbnail = %q", got)
	}

	if got := (Article{}).ThumbnailURL(); got != "" {
		t.Errorf("no thumbnail should yield empty string, got %q", got)
	}
}

func TestSlugifySeed(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello, World!", "hello-world"},
		{"  --  ", "article"},
		{"", "article"},
		{"Go 1.22 released", "go-1-22-released"},
	}
	for _, tt := range tests {
		if got := slugifySeed(tt.in); got != tt.want {
			t.Errorf("slugifySeed(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseAndFormatDate(t *testing.T) {
	if _, ok := ParseDate("2024-05-01T10:00:00Z"); !ok {
		t.Error("RFC3339 date should parse")
	}
	if _, ok := ParseDate("2024-05-01"); !ok {
		t.Error("bare date should parse")
	}
	if _, ok := ParseDate("garbage"); ok {
		t.Error("garbage should not parse")
	}
	if got := FormatDate(""); got != "Unknown date" {
		t.Errorf("FormatDate(\"\") = %q", got)
	}
	if got := FormatDate("2024-05-01T10:00:00Z"); got != "May 01, 2024" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestSortOptionsForSource(t *testing.T) {
	devto := SortValues(SortOptionsForSource("devto"))
	for _, v := range devto {
		if v == SortAuthor {
			t.Error("devto sources must not offer the author sort")
		}
	}
	if n := len(SortOptionsForSource("something-else")); n != len(SortOptions) {
		t.Errorf("unknown source type should get the full enumeration, got %d", n)
	}
}
