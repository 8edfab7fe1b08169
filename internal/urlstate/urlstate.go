// Package urlstate keeps the filter specification synchronized with a
// query string. Parsing never fails: every field is independently
// defaulted and clamped, so arbitrary query strings always yield a fully
// defined specification. Serialization is minimal: only fields differing
// from their defaults are written.
package urlstate

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"catex/internal/article"
)

// AuthorAll disables the author filter.
const AuthorAll = "all"

// Ranges is the allowed set for the "last N days" filter.
var Ranges = []string{article.RangeAll, "7", "30", "90"}

// MinCommentsOptions is the allowed set for the minimum comment filter.
var MinCommentsOptions = []int{0, 1, 5, 10, 25}

// Allowed carries the per-field allow-lists used while parsing. Empty
// lists leave the field unrestricted.
type Allowed struct {
	Sorts       []string
	Sources     []string
	Ranges      []string
	MinComments []int
}

// StandardAllowed builds the allow-lists for a known source id set.
func StandardAllowed(sources []string) Allowed {
	return Allowed{
		Sorts:       article.SortValues(article.SortOptions),
		Sources:     sources,
		Ranges:      Ranges,
		MinComments: MinCommentsOptions,
	}
}

// Defaults returns the hard default specification for a default source.
func Defaults(source string) article.Filters {
	return article.Filters{
		Q:           "",
		Author:      AuthorAll,
		Sort:        article.SortNewest,
		Source:      source,
		Page:        1,
		Range:       article.RangeAll,
		MinComments: 0,
		Tags:        []string{},
	}
}

// Parse derives a complete specification from query parameters, merging
// over defaults and clamping every field independently. Malformed input is
// silently replaced by the default for that field.
func Parse(values url.Values, defaults article.Filters, allowed Allowed) article.Filters {
	f := defaults
	f.Tags = copyTags(defaults.Tags)

	if values.Has("q") {
		f.Q = values.Get("q")
	}
	if values.Has("author") {
		f.Author = values.Get("author")
	}

	if raw := values.Get("sort"); raw != "" {
		f.Sort = raw
	}
	if len(allowed.Sorts) > 0 && !slices.Contains(allowed.Sorts, f.Sort) {
		f.Sort = defaults.Sort
	}

	if raw := values.Get("source"); raw != "" {
		f.Source = raw
	}
	if len(allowed.Sources) > 0 && !slices.Contains(allowed.Sources, f.Source) {
		f.Source = defaults.Source
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		f.Page = page
	} else {
		f.Page = defaults.Page
	}

	f.Range = parseRange(values.Get("range"), defaults.Range, values.Has("range"))
	if len(allowed.Ranges) > 0 && !slices.Contains(allowed.Ranges, f.Range) {
		f.Range = defaults.Range
	}

	f.MinComments = parseMinComments(values.Get("minComments"), defaults.MinComments)
	if len(allowed.MinComments) > 0 && !slices.Contains(allowed.MinComments, f.MinComments) {
		f.MinComments = defaults.MinComments
	}

	if raw := values.Get("tags"); raw != "" {
		f.Tags = splitTags(raw)
	}

	return f
}

// parseRange accepts the "all" literal or a positive integer, canonicalized
// back to its decimal string.
func parseRange(raw, fallback string, present bool) string {
	value := fallback
	if present {
		value = raw
	}
	if value == article.RangeAll {
		return value
	}
	days, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || days <= 0 {
		return fallback
	}
	return strconv.Itoa(days)
}

func parseMinComments(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// copyTags clones a tag list, preserving the "tags is always an array"
// invariant: the result is never nil.
func copyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// Encode is the inverse of Parse: a field is written only when it differs
// from its default, keeping default-filter URLs bare.
func Encode(f, defaults article.Filters) url.Values {
	values := url.Values{}
	if f.Q != "" && f.Q != defaults.Q {
		values.Set("q", f.Q)
	}
	if f.Author != "" && f.Author != defaults.Author {
		values.Set("author", f.Author)
	}
	if f.Sort != "" && f.Sort != defaults.Sort {
		values.Set("sort", f.Sort)
	}
	if f.Source != "" && f.Source != defaults.Source {
		values.Set("source", f.Source)
	}
	if f.Page != 0 && f.Page != defaults.Page {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Range != "" && f.Range != defaults.Range {
		values.Set("range", f.Range)
	}
	if f.MinComments != defaults.MinComments {
		values.Set("minComments", strconv.Itoa(f.MinComments))
	}
	if len(f.Tags) > 0 {
		values.Set("tags", strings.Join(f.Tags, ","))
	}
	return values
}

// EncodeQuery renders the minimal query string for a specification,
// without a leading "?". Empty means every field is at its default.
func EncodeQuery(f, defaults article.Filters) string {
	return Encode(f, defaults).Encode()
}

// ParseQuery parses a raw query string leniently: a malformed query yields
// the defaults rather than an error.
func ParseQuery(query string, defaults article.Filters, allowed Allowed) article.Filters {
	values, err := url.ParseQuery(query)
	if err != nil {
		values = url.Values{}
	}
	return Parse(values, defaults, allowed)
}
