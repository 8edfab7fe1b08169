// Package article defines the canonical article record and the pure
// filtering, sorting and facet logic that operates on it. Every upstream
// source shape is converted into Article by exactly one adapter; nothing
// downstream ever sees a raw payload.
package article

import (
	"fmt"
	"strings"
	"time"
)

// FallbackURL is rendered when a record carries no usable link.
const FallbackURL = "#"

// UnknownAuthor is the display name for records without author info.
const UnknownAuthor = "Unknown author"

const (
	cleanThumbBase = "https://picsum.photos/seed"
	cleanThumbSize = "800/520"
)

// Author is the canonical author snippet of an article.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ThumbnailImages holds the per-size image paths of a thumbnail.
type ThumbnailImages struct {
	Small string `json:"small"`
}

// Thumbnail is a two-level image reference: a base location plus relative
// image paths, joined at render time.
type Thumbnail struct {
	Location string          `json:"location"`
	Images   ThumbnailImages `json:"images"`
}

// Article is the one internal shape all source formats normalize into.
// IDs are unique within a fetched batch only; consumers must tolerate
// duplicates across batches.
type Article struct {
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title,omitempty"`
	URL          string     `json:"url,omitempty"`
	CommentCount int        `json:"comment_count"`
	Tags         []string   `json:"tags"`
	Author       Author     `json:"author"`
	Date         string     `json:"date"`
	Thumbnail    *Thumbnail `json:"thumbnail,omitempty"`
	SourceType   string     `json:"source_type,omitempty"`
}

// DisplayURL returns the article link, or the fallback sentinel when the
// record has none.
func (a Article) DisplayURL() string {
	if a.URL != "" {
		return a.URL
	}
	return FallbackURL
}

// AuthorName returns the author display name, never empty.
func (a Article) AuthorName() string {
	if a.Author.Name != "" {
		return a.Author.Name
	}
	return UnknownAuthor
}

// ThumbnailURL resolves the record's thumbnail to a single URL. Dev.to
// records get a deterministic seeded placeholder instead of the (often
// hotlink-protected) cover image. Returns "" when there is nothing to show.
func (a Article) ThumbnailURL() string {
	if a.SourceType == "devto" {
		return cleanThumbnail(a)
	}
	if a.Thumbnail != nil && a.Thumbnail.Images.Small != "" {
		return joinImageURL(a.Thumbnail.Location, a.Thumbnail.Images.Small)
	}
	return ""
}

func cleanThumbnail(a Article) string {
	seed := a.Title
	if seed == "" {
		seed = a.ID
	}
	return fmt.Sprintf("%s/catalog-%s/%s", cleanThumbBase, slugifySeed(seed), cleanThumbSize)
}

func slugifySeed(value string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "article"
	}
	return s
}

// joinImageURL joins a base location and a relative path without doubling
// or dropping the separating slash.
func joinImageURL(location, path string) string {
	if path == "" {
		return ""
	}
	if location == "" {
		return path
	}
	locSlash := strings.HasSuffix(location, "/")
	pathSlash := strings.HasPrefix(path, "/")
	switch {
	case locSlash && pathSlash:
		return location + path[1:]
	case !locSlash && !pathSlash:
		return location + "/" + path
	default:
		return location + path
	}
}

// dateLayouts are tried in order when parsing record dates. Sources emit
// RFC 3339 almost exclusively; the rest covers sloppy feeds.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate parses a record date string. ok is false when the value is
// empty or matches no known layout.
func ParseDate(value string) (t time.Time, ok bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateKey maps a record date onto a sortable integer. Unparsable dates
// collapse to 0 and therefore sort together; this mirrors the product
// behavior and is deliberate.
func dateKey(value string) int64 {
	t, ok := ParseDate(value)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// FormatDate renders a record date for display.
func FormatDate(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return "Unknown date"
	}
	return t.Format("Jan 02, 2006")
}

// RelativeTime renders how long ago t was, compactly.
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
