package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"catex/internal/article"
	"catex/internal/config"
	"catex/internal/query"
	"catex/internal/urlstate"
)

type stubLoader struct {
	results map[string]query.Result
}

func (s stubLoader) Load(_ context.Context, src config.Source) query.Result {
	return s.results[src.ID]
}

func (s stubLoader) Refresh(_ context.Context, src config.Source) query.Result {
	return s.results[src.ID]
}

type memMeta map[string]string

func (m memMeta) GetMeta(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m memMeta) SetMeta(key, value string) error {
	m[key] = value
	return nil
}

func testSources() []config.Source {
	return []config.Source{
		{ID: "devto", Label: "DEV Community", Type: "devto", URL: "https://dev.to/api/articles", Enabled: true},
		{ID: "gotime", Label: "Go Blog", Type: "rss", URL: "https://go.dev/blog/feed.atom", Enabled: true},
	}
}

func devtoArticles() []article.Article {
	return []article.Article{
		{ID: "1", Title: "Alpha", URL: "https://example.com/1", Author: article.Author{Name: "Jane Doe"}, CommentCount: 5, Tags: []string{"go"}, Date: "2026-08-20T10:00:00Z", SourceType: "devto"},
		{ID: "2", Title: "Beta", URL: "https://example.com/2", Author: article.Author{Name: "Sam Roe"}, CommentCount: 2, Tags: []string{"web"}, Date: "2026-08-21T10:00:00Z", SourceType: "devto"},
		{ID: "3", Title: "Gamma", URL: "https://example.com/3", Author: article.Author{Name: "Jane Doe"}, CommentCount: 9, Tags: []string{"go"}, Date: "2026-08-22T10:00:00Z", SourceType: "devto"},
	}
}

func rssArticles() []article.Article {
	return []article.Article{
		{ID: "https://go.dev/blog/a", Title: "Go article", URL: "https://go.dev/blog/a", Author: article.Author{Name: "Go Team"}, Tags: []string{}, Date: "2026-08-19T00:00:00Z", SourceType: "gotime"},
	}
}

func newTestApp(t *testing.T) (*App, *urlstate.MemoryHistory) {
	t.Helper()

	cfg := &config.Config{PageSize: 2, TopTags: 5, Sources: testSources()}
	hist := urlstate.NewMemoryHistory("")
	store := urlstate.NewStore(hist, urlstate.Defaults("devto"), urlstate.StandardAllowed(cfg.SourceIDs()))

	app := NewApp(RunOpts{
		Cfg:     cfg,
		Store:   store,
		History: hist,
		Meta:    memMeta{},
		Loader: stubLoader{results: map[string]query.Result{
			"devto":  {Articles: devtoArticles()},
			"gotime": {Articles: rssArticles()},
		}},
	})
	return app, hist
}

func loadInto(t *testing.T, app *App, sourceID string, res query.Result) {
	t.Helper()
	model, _ := app.Update(articlesLoadedMsg{sourceID: sourceID, res: res})
	if model != app {
		t.Fatal("Update returned a different model")
	}
}

func TestLoadResultInstallsArticles(t *testing.T) {
	app, _ := newTestApp(t)

	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	if !app.loaded || app.loading {
		t.Fatalf("loaded=%v loading=%v after load", app.loaded, app.loading)
	}
	if got := len(app.res.Articles); got != 3 {
		t.Errorf("articles = %d, want 3", got)
	}
}

func TestLoadResultForOtherSourceIsDropped(t *testing.T) {
	app, _ := newTestApp(t)

	loadInto(t, app, "gotime", query.Result{Articles: rssArticles()})

	if app.loaded {
		t.Error("result for a source we navigated away from was installed")
	}
}

func TestSourceSwitchCorrectsSortWithoutHistoryEntry(t *testing.T) {
	app, hist := newTestApp(t)
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	// User picks a devto-only sort, then switches source. Each explicit
	// action is one history entry.
	cur := app.store.Current()
	cur.Sort = article.SortPopular
	app.applySpec(cur, false)
	if hist.Len() != 2 {
		t.Fatalf("history = %d entries after sort change, want 2", hist.Len())
	}

	cur = app.store.Current()
	cur.Source = "gotime"
	cur.Page = 1
	app.applySpec(cur, false)
	if hist.Len() != 3 {
		t.Fatalf("history = %d entries after source change, want 3", hist.Len())
	}
	if !app.loading || app.loaded {
		t.Fatal("source switch should start a fresh load")
	}

	// The rss source does not offer the popular sort; loading its data
	// triggers the corrective fallback, which must rewrite the current
	// entry instead of adding one.
	loadInto(t, app, "gotime", query.Result{Articles: rssArticles()})

	got := app.store.Current()
	if got.Sort != article.SortNewest {
		t.Errorf("sort = %q, want corrected to %q", got.Sort, article.SortNewest)
	}
	if got.Page != 1 {
		t.Errorf("page = %d, want 1", got.Page)
	}
	if hist.Len() != 3 {
		t.Errorf("history = %d entries after correction, want 3 (replace, not push)", hist.Len())
	}
}

func TestSwitchSourcePersistsLastSource(t *testing.T) {
	app, _ := newTestApp(t)
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	cur := app.store.Current()
	cur.Source = "gotime"
	app.applySpec(cur, false)

	meta := app.meta.(memMeta)
	if got := meta["last_source"]; got != "gotime" {
		t.Errorf("persisted last source = %q, want gotime", got)
	}
}

func TestDebounceStaleTickIgnored(t *testing.T) {
	app, hist := newTestApp(t)
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	app.mode = modeSearch
	app.searchInput.SetValue("alpha")
	app.searchSeq = 5

	app.Update(debounceMsg{seq: 4})
	if got := app.store.Current().Q; got != "" {
		t.Errorf("stale tick committed q=%q", got)
	}

	app.Update(debounceMsg{seq: 5})
	got := app.store.Current()
	if got.Q != "alpha" {
		t.Errorf("q = %q, want alpha", got.Q)
	}
	if got.Page != 1 {
		t.Errorf("page = %d, want reset to 1", got.Page)
	}
	if hist.Len() != 2 {
		t.Errorf("history = %d entries, want 2 (search commit pushes)", hist.Len())
	}
}

func TestDebounceNoopWhenQueryUnchanged(t *testing.T) {
	app, hist := newTestApp(t)
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	app.mode = modeSearch
	app.searchInput.SetValue("  ")
	app.searchSeq = 1
	app.Update(debounceMsg{seq: 1})

	if hist.Len() != 1 {
		t.Errorf("whitespace-only query grew history to %d entries", hist.Len())
	}
}

func TestBackResyncsAndReloadsSource(t *testing.T) {
	app, hist := newTestApp(t)
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	cur := app.store.Current()
	cur.Source = "gotime"
	app.applySpec(cur, false)
	loadInto(t, app, "gotime", query.Result{Articles: rssArticles()})

	if !hist.Back() {
		t.Fatal("expected a history entry to go back to")
	}
	app.resyncFromHistory()

	got := app.store.Current()
	if got.Source != "devto" {
		t.Errorf("source after back = %q, want devto", got.Source)
	}
	if app.activeSource != "devto" || !app.loading {
		t.Errorf("back across sources should reload: active=%q loading=%v", app.activeSource, app.loading)
	}
}

func TestGotoPageClampsAndSkipsNoop(t *testing.T) {
	app, hist := newTestApp(t)
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	// Three articles, page size two: two pages.
	if cmd := app.gotoPage(7); cmd != nil {
		t.Error("clamped page change should not produce a command")
	}
	if got := app.store.Current().Page; got != 2 {
		t.Errorf("page = %d, want clamped to 2", got)
	}
	before := hist.Len()
	app.gotoPage(2)
	if hist.Len() != before {
		t.Error("no-op page change grew history")
	}
}

func TestResetKeepsSource(t *testing.T) {
	app, _ := newTestApp(t)

	cur := app.store.Current()
	cur.Source = "gotime"
	app.applySpec(cur, false)
	loadInto(t, app, "gotime", query.Result{Articles: rssArticles()})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	got := app.store.Current()
	if got.Source != "gotime" {
		t.Errorf("reset switched source to %q", got.Source)
	}
}

func TestCycleRowTogglesTag(t *testing.T) {
	app, hist := newTestApp(t)
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	app.cycleRow(panelRow{kind: rowTag, tag: "go"}, 1)
	got := app.store.Current()
	if len(got.Tags) != 1 || got.Tags[0] != "go" {
		t.Fatalf("tags = %v, want [go]", got.Tags)
	}
	if hist.Len() != 2 {
		t.Errorf("history = %d entries, want 2", hist.Len())
	}

	app.cycleRow(panelRow{kind: rowTag, tag: "GO"}, 1)
	if got := app.store.Current().Tags; len(got) != 0 {
		t.Errorf("tags after case-insensitive toggle = %v, want empty", got)
	}
}

func TestCycleRowNoopDoesNotPush(t *testing.T) {
	app, hist := newTestApp(t)
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	// Range options cycle, so stepping always changes the value; the
	// single-option source list however cannot change with one source.
	app.cfg.Sources = app.cfg.Sources[:1]
	before := hist.Len()
	if cmd := app.cycleRow(panelRow{kind: rowSource}, 1); cmd != nil {
		t.Error("cycling a single-option row should be a no-op")
	}
	if hist.Len() != before {
		t.Error("no-op cycle grew history")
	}
}

func TestTagOptionsSuppressNoisyTag(t *testing.T) {
	app, _ := newTestApp(t)
	recs := devtoArticles()
	recs[0].Tags = []string{"AI", "go"}
	recs[1].Tags = []string{"ai"}
	loadInto(t, app, "devto", query.Result{Articles: recs})

	for _, tag := range app.tagOptions() {
		if tag == "ai" || tag == "AI" {
			t.Fatalf("noisy tag surfaced in options: %v", app.tagOptions())
		}
	}

	// A deliberate selection still shows.
	cur := app.store.Current()
	cur.Tags = []string{"ai"}
	app.applySpec(cur, false)
	opts := app.tagOptions()
	if len(opts) == 0 || opts[0] != "ai" {
		t.Errorf("selected tag missing from options: %v", opts)
	}
}

func TestViewRendersWithoutPanic(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 32})
	loadInto(t, app, "devto", query.Result{Articles: devtoArticles()})

	out := app.View()
	if out == "" {
		t.Fatal("empty view")
	}
	for _, want := range []string{"devto", "go", "Jane Doe"} {
		if !strings.Contains(out, want) {
			t.Errorf("browse view missing card segment %q", want)
		}
	}
	app.mode = modeFilter
	if app.View() == "" {
		t.Fatal("empty filter view")
	}
	app.mode = modeHelp
	if app.View() == "" {
		t.Fatal("empty help view")
	}
}
