package article

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sort values accepted by FilterAndSort.
const (
	SortNewest  = "newest"
	SortPopular = "popular"
	SortOldest  = "oldest"
	SortTitle   = "title"
	SortAuthor  = "author"
)

// RangeAll disables the date range filter.
const RangeAll = "all"

// SortOption pairs a sort value with its display label.
type SortOption struct {
	Value string
	Label string
}

// SortOptions is the full sort enumeration, in display order.
var SortOptions = []SortOption{
	{Value: SortNewest, Label: "Newest"},
	{Value: SortPopular, Label: "Most comments"},
	{Value: SortOldest, Label: "Oldest"},
	{Value: SortTitle, Label: "Title A-Z"},
	{Value: SortAuthor, Label: "Author A-Z"},
}

// sourceSorts restricts the sort set per source type. The dev.to API has
// no author sort worth offering; feeds have no comment counts.
var sourceSorts = map[string][]string{
	"devto":    {SortNewest, SortPopular, SortOldest, SortTitle},
	"articles": {SortNewest, SortOldest, SortTitle, SortAuthor},
	"rss":      {SortNewest, SortOldest, SortTitle, SortAuthor},
}

// SortOptionsForSource returns the sort options allowed for a source type,
// or the full enumeration for an unknown type.
func SortOptionsForSource(sourceType string) []SortOption {
	allowed, ok := sourceSorts[sourceType]
	if !ok {
		return SortOptions
	}
	out := make([]SortOption, 0, len(allowed))
	for _, opt := range SortOptions {
		for _, v := range allowed {
			if opt.Value == v {
				out = append(out, opt)
				break
			}
		}
	}
	return out
}

// SortValues extracts the values of a sort option list.
func SortValues(opts []SortOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

// SortLabel returns the display label for a sort value.
func SortLabel(value string) string {
	for _, opt := range SortOptions {
		if opt.Value == value {
			return opt.Label
		}
	}
	return SortOptions[0].Label
}

// Filters is the complete filter specification driving FilterAndSort.
// It is never partial: every field carries a value, defaulted if needed.
type Filters struct {
	Q           string
	Author      string
	Sort        string
	Source      string
	Page        int
	Range       string
	MinComments int
	Tags        []string
}

// FilterAndSort applies the filter predicates and sort comparator to a
// record set. It is pure: the input slice is never mutated and the same
// input pair always yields the same output.
func FilterAndSort(articles []Article, f Filters) []Article {
	query := strings.ToLower(strings.TrimSpace(f.Q))
	cutoff, hasCutoff := rangeCutoff(f.Range, time.Now())

	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if !matchesQuery(a, query) {
			continue
		}
		if !matchesAuthor(a, f.Author) {
			continue
		}
		if !matchesTags(a, f.Tags) {
			continue
		}
		if f.MinComments > 0 && a.CommentCount < f.MinComments {
			continue
		}
		if hasCutoff && !matchesCutoff(a, cutoff) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, comparator(out, f.Sort))
	return out
}

func matchesQuery(a Article, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(a.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(a.Author.Name), query) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func matchesAuthor(a Article, author string) bool {
	if author == "" || author == "all" {
		return true
	}
	return strings.EqualFold(a.Author.Name, author)
}

// matchesTags implements OR semantics: one shared tag is enough.
func matchesTags(a Article, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, have := range a.Tags {
		for _, want := range tags {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// rangeCutoff converts a "last N days" range into an absolute cutoff.
// "all", empty and malformed values disable the filter.
func rangeCutoff(value string, now time.Time) (time.Time, bool) {
	if value == "" || value == RangeAll {
		return time.Time{}, false
	}
	days, err := strconv.Atoi(value)
	if err != nil || days <= 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -days), true
}

// matchesCutoff excludes records whose date cannot be parsed: an unknown
// date cannot be shown to fall inside the window.
func matchesCutoff(a Article, cutoff time.Time) bool {
	t, ok := ParseDate(a.Date)
	if !ok {
		return false
	}
	return !t.Before(cutoff)
}

func comparator(items []Article, sortValue string) func(i, j int) bool {
	switch sortValue {
	case SortTitle:
		return func(i, j int) bool {
			return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
		}
	case SortAuthor:
		return func(i, j int) bool {
			return strings.ToLower(items[i].Author.Name) < strings.ToLower(items[j].Author.Name)
		}
	case SortPopular:
		return func(i, j int) bool {
			if items[i].CommentCount != items[j].CommentCount {
				return items[i].CommentCount > items[j].CommentCount
			}
			// Ties break to the newer record.
			return dateKey(items[i].Date) > dateKey(items[j].Date)
		}
	case SortOldest:
		return func(i, j int) bool {
			return dateKey(items[i].Date) < dateKey(items[j].Date)
		}
	default: // newest
		return func(i, j int) bool {
			return dateKey(items[i].Date) > dateKey(items[j].Date)
		}
	}
}
