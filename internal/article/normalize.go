package article

import (
	"math"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"catex/internal/telemetry"
)

// An adapter converts one raw item (decoded JSON) into a canonical record.
// Returning ok=false drops the item.
type adapter func(item map[string]any) (Article, bool)

// shapeRule pairs a detection predicate with the adapter to run when it
// matches. Rules are evaluated in order; the first match wins.
type shapeRule struct {
	match func(item map[string]any) bool
	adapt adapter
}

// typeAdapters dispatches tagged union items ({type, data}) by tag.
var typeAdapters = map[string]adapter{
	"article": adaptGeneric,
	"devto":   adaptDevTo,
}

// dropReason classifies why an item was excluded from the canonical set.
type dropReason string

const (
	dropInvalidTyped dropReason = telemetry.EventInvalidTypedItem
	dropUnknownType  dropReason = telemetry.EventUnknownArticleType
	dropNotObject    dropReason = "not_object"
)

// itemResult is the per-item outcome of normalization: either a kept
// record or a drop with a reason and event payload.
type itemResult struct {
	article Article
	reason  dropReason
	payload map[string]any
}

func kept(a Article) itemResult {
	return itemResult{article: a}
}

func dropped(reason dropReason, payload map[string]any) itemResult {
	return itemResult{reason: reason, payload: payload}
}

// Normalizer converts raw heterogeneous payloads into canonical records,
// reporting every dropped item to the telemetry sink.
type Normalizer struct {
	reporter telemetry.Reporter
	rules    []shapeRule
}

func NewNormalizer(reporter telemetry.Reporter) *Normalizer {
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	return &Normalizer{
		reporter: reporter,
		// Ranked: the dev.to shape sniff runs before the generic
		// passthrough, which accepts any plain object.
		rules: []shapeRule{
			{match: looksLikeDevTo, adapt: adaptDevTo},
			{match: func(map[string]any) bool { return true }, adapt: adaptGeneric},
		},
	}
}

// Normalize extracts the item sequence from a raw payload and converts
// each item. Malformed items are dropped and reported, never fatal; output
// order follows input order. The payload is a decoded JSON value: a bare
// array, or an object with an array-valued "articles" or "hits" property.
func (n *Normalizer) Normalize(payload any) []Article {
	items := itemsFromPayload(payload)
	out := make([]Article, 0, len(items))
	for _, item := range items {
		res := n.normalizeItem(item)
		if res.reason != "" {
			if res.reason != dropNotObject {
				n.reporter.Report(string(res.reason), res.payload)
			}
			continue
		}
		out = append(out, res.article)
	}
	return out
}

func (n *Normalizer) normalizeItem(item any) itemResult {
	obj, isObj := item.(map[string]any)
	if !isObj {
		return dropped(dropNotObject, nil)
	}
	if _, hasType := obj["type"]; hasType {
		return normalizeTypedItem(obj)
	}
	for _, rule := range n.rules {
		if rule.match(obj) {
			if a, ok := rule.adapt(obj); ok {
				return kept(a)
			}
			return dropped(dropNotObject, nil)
		}
	}
	return dropped(dropNotObject, nil)
}

// normalizeTypedItem dispatches a tagged union item to the adapter
// registered for its tag. Unknown tags and adapter failures drop the item
// with an event; the batch continues.
func normalizeTypedItem(obj map[string]any) itemResult {
	rawType, _ := obj["type"].(string)
	tag := strings.ToLower(strings.TrimSpace(rawType))
	_, hasData := obj["data"]
	if tag == "" || !hasData {
		return dropped(dropInvalidTyped, map[string]any{"sample_type": rawType})
	}
	adapt, known := typeAdapters[tag]
	if !known {
		return dropped(dropUnknownType, map[string]any{"type": tag})
	}
	data, _ := obj["data"].(map[string]any)
	if data == nil {
		return dropped(dropInvalidTyped, map[string]any{"type": tag})
	}
	a, ok := adapt(data)
	if !ok {
		return dropped(dropInvalidTyped, map[string]any{"type": tag})
	}
	if a.SourceType == "" {
		a.SourceType = tag
	}
	return kept(a)
}

func itemsFromPayload(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		if items, ok := v["articles"].([]any); ok {
			return items
		}
		if items, ok := v["hits"].([]any); ok {
			return items
		}
	}
	return nil
}

// looksLikeDevTo sniffs untagged items for the dev.to API shape.
func looksLikeDevTo(item map[string]any) bool {
	if _, ok := item["user"]; ok {
		return true
	}
	if _, ok := item["tag_list"]; ok {
		return true
	}
	if _, ok := item["comments_count"]; ok {
		return true
	}
	if s, _ := item["cover_image"].(string); s != "" {
		return true
	}
	if s, _ := item["social_image"].(string); s != "" {
		return true
	}
	return false
}

// adaptGeneric maps an already-canonical plain object into Article. This
// is the Go rendition of the identity adapter: field names are read as-is.
func adaptGeneric(item map[string]any) (Article, bool) {
	a := Article{
		ID:           stringValue(item["id"]),
		Title:        stringValue(item["title"]),
		URL:          stringValue(item["url"]),
		CommentCount: nonNegativeInt(item["comment_count"]),
		Tags:         stringSlice(item["tags"]),
		Date:         stringValue(item["date"]),
		SourceType:   stringValue(item["source_type"]),
	}
	if author, ok := item["author"].(map[string]any); ok {
		a.Author.Name = stringValue(author["name"])
		a.Author.Avatar = stringValue(author["avatar"])
	}
	if thumb, ok := item["thumbnail"].(map[string]any); ok {
		t := &Thumbnail{Location: stringValue(thumb["location"])}
		if images, ok := thumb["images"].(map[string]any); ok {
			t.Images.Small = stringValue(images["small"])
		}
		a.Thumbnail = t
	}
	return a, true
}

// adaptDevTo maps a dev.to API item. Field fallbacks follow the API:
// reaction counts stand in for missing comment counts, username for a
// missing display name, the social image for a missing cover image.
func adaptDevTo(item map[string]any) (Article, bool) {
	a := Article{
		ID:           stringValue(item["id"]),
		Title:        stringValue(item["title"]),
		URL:          stringValue(item["url"]),
		CommentCount: firstNonNegativeInt(item, "comments_count", "public_reactions_count", "positive_reactions_count"),
		Tags:         devToTags(item),
		Date:         firstString(item, "published_at", "created_at", "edited_at"),
		SourceType:   "devto",
	}

	a.Author.Name = UnknownAuthor
	if user, ok := item["user"].(map[string]any); ok {
		if name := firstString(user, "name", "username"); name != "" {
			a.Author.Name = name
		}
		a.Author.Avatar = firstString(user, "profile_image_90", "profile_image")
	}

	if cover := firstString(item, "cover_image", "social_image"); cover != "" {
		a.Thumbnail = &Thumbnail{Images: ThumbnailImages{Small: cover}}
	}
	return a, true
}

// AdaptFeedItem converts a parsed RSS/Atom entry into a canonical record.
// Feeds carry no comment counts or avatars; those fields default.
func AdaptFeedItem(item *gofeed.Item, sourceLabel string) Article {
	if item == nil {
		return Article{SourceType: "rss"}
	}
	date := ""
	if item.PublishedParsed != nil {
		date = item.PublishedParsed.UTC().Format("2006-01-02T15:04:05Z07:00")
	} else if item.UpdatedParsed != nil {
		date = item.UpdatedParsed.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	name := ""
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		name = item.Authors[0].Name
	}
	if name == "" && sourceLabel != "" {
		name = sourceLabel
	}
	if name == "" {
		name = UnknownAuthor
	}

	a := Article{
		ID:         item.GUID,
		Title:      item.Title,
		URL:        item.Link,
		Tags:       append([]string(nil), item.Categories...),
		Author:     Author{Name: name},
		Date:       date,
		SourceType: "rss",
	}
	if a.ID == "" {
		a.ID = item.Link
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if item.Image != nil && item.Image.URL != "" {
		a.Thumbnail = &Thumbnail{Images: ThumbnailImages{Small: item.Image.URL}}
	}
	return a
}

// devToTags reads tag_list as an array or a comma separated string,
// falling back to a plain tags array.
func devToTags(item map[string]any) []string {
	switch v := item["tag_list"].(type) {
	case []any:
		return stringSlice(v)
	case string:
		parts := strings.Split(v, ",")
		tags := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				tags = append(tags, p)
			}
		}
		return tags
	}
	return stringSlice(item["tags"])
}

// stringValue renders a scalar JSON value as a string; numbers keep their
// shortest decimal form so numeric ids round-trip cleanly.
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func firstString(item map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(item[k]); s != "" {
			return s
		}
	}
	return ""
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	}
	return 0, false
}

// finite rejects NaN and infinities: converting either to int is
// undefined and would let a bogus value through the n < 0 guards.
func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func nonNegativeInt(v any) int {
	n, ok := asNumber(v)
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}

// firstNonNegativeInt returns the first key that coerces to a finite
// number, clamped at zero. Missing or non-numeric values yield 0.
func firstNonNegativeInt(item map[string]any, keys ...string) int {
	for _, k := range keys {
		if n, ok := asNumber(item[k]); ok {
			if n < 0 {
				return 0
			}
			return int(n)
		}
	}
	return 0
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := stringValue(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
