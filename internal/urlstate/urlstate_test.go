package urlstate

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"catex/internal/article"
)

func testAllowed() Allowed {
	return StandardAllowed([]string{"devto", "configured"})
}

func parse(t *testing.T, query string) article.Filters {
	t.Helper()
	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("parsing query %q: %v", query, err)
	}
	return Parse(values, Defaults("devto"), testAllowed())
}

func TestParseDefaultsWhenEmpty(t *testing.T) {
	got := parse(t, "")
	want := Defaults("devto")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestParseClampsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, f article.Filters)
	}{
		{"page zero", "page=0", func(t *testing.T, f article.Filters) {
			if f.Page != 1 {
				t.Errorf("page = %d, want 1", f.Page)
			}
		}},
		{"page garbage", "page=abc", func(t *testing.T, f article.Filters) {
			if f.Page != 1 {
				t.Errorf("page = %d, want 1", f.Page)
			}
		}},
		{"range outside allowed set", "range=15", func(t *testing.T, f article.Filters) {
			if f.Range != article.RangeAll {
				t.Errorf("range = %q, want all", f.Range)
			}
		}},
		{"range negative", "range=-7", func(t *testing.T, f article.Filters) {
			if f.Range != article.RangeAll {
				t.Errorf("range = %q, want all", f.Range)
			}
		}},
		{"range valid", "range=30", func(t *testing.T, f article.Filters) {
			if f.Range != "30" {
				t.Errorf("range = %q, want 30", f.Range)
			}
		}},
		{"minComments outside allowed set", "minComments=3", func(t *testing.T, f article.Filters) {
			if f.MinComments != 0 {
				t.Errorf("minComments = %d, want 0", f.MinComments)
			}
		}},
		{"minComments negative", "minComments=-5", func(t *testing.T, f article.Filters) {
			if f.MinComments != 0 {
				t.Errorf("minComments = %d, want 0", f.MinComments)
			}
		}},
		{"minComments valid", "minComments=10", func(t *testing.T, f article.Filters) {
			if f.MinComments != 10 {
				t.Errorf("minComments = %d, want 10", f.MinComments)
			}
		}},
		{"unknown sort", "sort=bogus", func(t *testing.T, f article.Filters) {
			if f.Sort != article.SortNewest {
				t.Errorf("sort = %q, want newest", f.Sort)
			}
		}},
		{"unknown source", "source=bogus", func(t *testing.T, f article.Filters) {
			if f.Source != "devto" {
				t.Errorf("source = %q, want devto", f.Source)
			}
		}},
		{"tags trimmed and filtered", "tags=go,+,+tui+,", func(t *testing.T, f article.Filters) {
			if diff := cmp.Diff([]string{"go", "tui"}, f.Tags); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parse(t, tt.query))
		})
	}
}

func TestParseNeverPanicsOnMalformedQuery(t *testing.T) {
	queries := []string{"%zz", "page=%", "a=b&a=c&&&", "tags=%2C%2C"}
	for _, q := range queries {
		f := ParseQuery(q, Defaults("devto"), testAllowed())
		if f.Page < 1 {
			t.Errorf("query %q produced invalid page %d", q, f.Page)
		}
	}
}

func TestEncodeMinimalSerialization(t *testing.T) {
	defaults := Defaults("devto")

	if got := EncodeQuery(defaults, defaults); got != "" {
		t.Errorf("default spec must serialize to the bare query, got %q", got)
	}

	f := defaults
	f.Q = "kubernetes"
	f.Page = 3
	f.Tags = []string{"go", "tui"}
	values := Encode(f, defaults)

	if values.Get("q") != "kubernetes" || values.Get("page") != "3" || values.Get("tags") != "go,tui" {
		t.Errorf("unexpected encoding: %v", values)
	}
	for _, absent := range []string{"sort", "source", "author", "range", "minComments"} {
		if values.Has(absent) {
			t.Errorf("default-valued field %q must not be serialized", absent)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	defaults := Defaults("devto")
	specs := []article.Filters{
		defaults,
		{Q: "search terms", Author: "Alice", Sort: article.SortPopular, Source: "configured",
			Page: 4, Range: "7", MinComments: 5, Tags: []string{"go", "web"}},
		{Q: "", Author: AuthorAll, Sort: article.SortTitle, Source: "devto",
			Page: 1, Range: "90", MinComments: 25, Tags: []string{}},
	}
	for _, want := range specs {
		got := ParseQuery(EncodeQuery(want, defaults), defaults, testAllowed())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory("")
	h.Push("q=a")
	h.Push("q=b")
	if h.Current() != "q=b" || h.Len() != 3 {
		t.Fatalf("unexpected state: current=%q len=%d", h.Current(), h.Len())
	}

	if !h.Back() || h.Current() != "q=a" {
		t.Errorf("back should land on q=a, got %q", h.Current())
	}
	// Pushing after going back drops the forward tail.
	h.Push("q=c")
	if h.Forward() {
		t.Error("forward should not move past a fresh push")
	}
	if h.Len() != 3 || h.Current() != "q=c" {
		t.Errorf("unexpected state after truncating push: current=%q len=%d", h.Current(), h.Len())
	}

	h.Replace("q=r")
	if h.Current() != "q=r" || h.Len() != 3 {
		t.Errorf("replace must not grow history: current=%q len=%d", h.Current(), h.Len())
	}
}

func TestStoreUpdateAndResync(t *testing.T) {
	defaults := Defaults("devto")
	hist := NewMemoryHistory("")
	store := NewStore(hist, defaults, testAllowed())

	next := store.Current()
	next.Q = "go"
	next.Page = 2
	store.Update(next, false)
	if hist.Len() != 2 {
		t.Errorf("push update should add a history entry, len=%d", hist.Len())
	}

	corrected := store.Current()
	corrected.Page = 1
	store.Update(corrected, true)
	if hist.Len() != 2 {
		t.Errorf("replace update must not add a history entry, len=%d", hist.Len())
	}
	if hist.Current() != "q=go" {
		t.Errorf("current entry = %q, want q=go", hist.Current())
	}

	// Back navigation re-derives the spec from the query string.
	hist.Back()
	got := store.Resync()
	if diff := cmp.Diff(defaults, got); diff != "" {
		t.Errorf("resync mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreInitialStateFromQuery(t *testing.T) {
	hist := NewMemoryHistory("source=configured&sort=author&page=5")
	store := NewStore(hist, Defaults("devto"), testAllowed())
	f := store.Current()
	if f.Source != "configured" || f.Sort != article.SortAuthor || f.Page != 5 {
		t.Errorf("unexpected initial state: %+v", f)
	}
}
