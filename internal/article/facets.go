package article

import (
	"sort"
	"strings"
)

// UniqueAuthors returns the distinct non-empty author names of a record
// set, sorted. Names are distinct by exact identity; the controller is
// responsible for case-insensitive canonicalization against this list.
func UniqueAuthors(articles []Article) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range articles {
		name := a.Author.Name
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TopTags returns the most frequent tags across a record set, ranked by
// descending frequency with ascending tag name as tie-break, truncated to
// limit.
func TopTags(articles []Article, limit int) []string {
	counts := make(map[string]int)
	for _, a := range articles {
		for _, tag := range a.Tags {
			if tag != "" {
				counts[tag]++
			}
		}
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})

	if limit >= 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

// TagOptions unions the currently selected tags with the top tags for the
// filter controls: selected first, then remaining top tags, deduplicated
// case-insensitively.
func TagOptions(selected, top []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(selected)+len(top))
	add := func(tag string) {
		key := strings.ToLower(tag)
		if tag == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range selected {
		add(tag)
	}
	for _, tag := range top {
		add(tag)
	}
	return out
}

// ToggleTag adds the tag to the selection, or removes it when a
// case-insensitive match is already selected. The result is always a
// fresh slice.
func ToggleTag(selected []string, tag string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, t := range selected {
		if strings.EqualFold(t, tag) {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		out = append(out, tag)
	}
	return out
}

// MatchAuthor resolves an author filter value against the facet list:
// exact value, canonical casing for a case-insensitive match, or "" when
// nothing matches. "all" resolves to itself.
func MatchAuthor(author string, authors []string) string {
	if author == "" || author == "all" {
		return "all"
	}
	for _, name := range authors {
		if strings.EqualFold(name, author) {
			return name
		}
	}
	return ""
}
