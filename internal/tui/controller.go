package tui

import (
	"slices"

	"catex/internal/article"
	"catex/internal/urlstate"
)

// totalPages is never below 1: an empty result set still has one page.
func totalPages(totalCount, pageSize int) int {
	if pageSize <= 0 {
		pageSize = 1
	}
	pages := (totalCount + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func clampPage(page, pages int) int {
	if page < 1 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}

// pageSlice returns the records on a 1-based page.
func pageSlice(filtered []article.Article, page, pageSize int) []article.Article {
	start := (page - 1) * pageSize
	if start < 0 || start >= len(filtered) {
		return nil
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// pageBounds returns the 1-based "Showing start-end" range for a page, or
// (0, 0) for an empty result set.
func pageBounds(totalCount, page, pageSize int) (start, end int) {
	if totalCount == 0 {
		return 0, 0
	}
	start = (page-1)*pageSize + 1
	end = page * pageSize
	if end > totalCount {
		end = totalCount
	}
	return start, end
}

// reconcile applies the corrective rules the archive runs after every
// state change. Each rule is independent and idempotent; the result is the
// corrected specification and whether anything changed. Callers install a
// changed spec with a replace update so corrections never become history
// stops.
//
// Rules: a sort not allowed for the active source falls back to the
// source's first allowed sort; an author filter is rewritten to the
// canonical casing from the author facet, or reset to "all" when it
// matches nothing; the page is clamped into the filtered set's page range.
func reconcile(f article.Filters, records []article.Article, pageSize int, sortsFor func(sourceID string) []string) (article.Filters, bool) {
	changed := false

	if sorts := sortsFor(f.Source); len(sorts) > 0 && !slices.Contains(sorts, f.Sort) {
		f.Sort = sorts[0]
		f.Page = 1
		changed = true
	}

	if f.Author != "" && f.Author != urlstate.AuthorAll {
		if authors := article.UniqueAuthors(records); len(authors) > 0 {
			switch matched := article.MatchAuthor(f.Author, authors); {
			case matched == "":
				f.Author = urlstate.AuthorAll
				f.Page = 1
				changed = true
			case matched != f.Author:
				f.Author = matched
				f.Page = 1
				changed = true
			}
		}
	}

	filtered := article.FilterAndSort(records, f)
	if clamped := clampPage(f.Page, totalPages(len(filtered), pageSize)); clamped != f.Page {
		f.Page = clamped
		changed = true
	}

	return f, changed
}

func filtersEqual(a, b article.Filters) bool {
	return a.Q == b.Q &&
		a.Author == b.Author &&
		a.Sort == b.Sort &&
		a.Source == b.Source &&
		a.Page == b.Page &&
		a.Range == b.Range &&
		a.MinComments == b.MinComments &&
		slices.Equal(a.Tags, b.Tags)
}

// cycle steps through an option list relative to the current value.
// An unknown current value lands on the first option.
func cycle(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	idx := slices.Index(options, current)
	if idx < 0 {
		return options[0]
	}
	idx = (idx + delta + len(options)) % len(options)
	return options[idx]
}

func cycleInt(options []int, current, delta int) int {
	if len(options) == 0 {
		return current
	}
	idx := slices.Index(options, current)
	if idx < 0 {
		return options[0]
	}
	idx = (idx + delta + len(options)) % len(options)
	return options[idx]
}
