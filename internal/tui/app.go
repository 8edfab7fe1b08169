package tui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"catex/internal/article"
	"catex/internal/browser"
	"catex/internal/cache"
	"catex/internal/config"
	"catex/internal/query"
	"catex/internal/urlstate"
)

// searchDebounce is how long typing in the search box has to pause before
// the query commits to the filter state.
const searchDebounce = 300 * time.Millisecond

const loadTimeout = 45 * time.Second

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeFilter
	modeHelp
)

// Loader fetches the article set for a source. *query.Client is the real
// implementation; tests substitute a stub.
type Loader interface {
	Load(ctx context.Context, src config.Source) query.Result
	Refresh(ctx context.Context, src config.Source) query.Result
}

// MetaStore persists small bits of session state across runs, such as the
// last viewed source. *cache.Cache implements it.
type MetaStore interface {
	GetMeta(key string) (string, bool)
	SetMeta(key, value string) error
}

type App struct {
	cfg    *config.Config
	store  *urlstate.Store
	hist   *urlstate.MemoryHistory
	meta   MetaStore
	loader Loader
	log    *slog.Logger

	mode   mode
	width  int
	height int

	// List and panel focus
	cursor   int
	panelRow int

	// activeSource is the source the current result set belongs to. A load
	// result for any other source is stale and gets dropped.
	activeSource string
	res          query.Result
	loaded       bool
	loading      bool
	refreshing   bool

	searchInput textinput.Model
	searchSeq   int
	spinner     spinner.Model

	currentDate string
	openErr     error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Cfg     *config.Config
	Store   *urlstate.Store
	History *urlstate.MemoryHistory
	Meta    MetaStore
	Loader  Loader
	Logger  *slog.Logger
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search articles..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	initial := opts.Store.Current()
	ti.SetValue(initial.Q)

	return &App{
		cfg:          opts.Cfg,
		store:        opts.Store,
		hist:         opts.History,
		meta:         opts.Meta,
		loader:       opts.Loader,
		log:          log,
		searchInput:  ti,
		spinner:      sp,
		activeSource: initial.Source,
		loading:      true,
		currentDate:  time.Now().Format("Jan 2"),
	}
}

// Run launches the program in the alternate screen.
func Run(opts RunOpts) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadCmd(a.activeSource, false))
}

func (a *App) loadCmd(sourceID string, refresh bool) tea.Cmd {
	src, ok := a.cfg.SourceByID(sourceID)
	if !ok {
		return func() tea.Msg {
			return articlesLoadedMsg{
				sourceID: sourceID,
				res:      query.Result{Err: fmt.Errorf("unknown source %q", sourceID)},
			}
		}
	}
	loader := a.loader
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		if refresh {
			return refreshDoneMsg{sourceID: sourceID, res: loader.Refresh(ctx, src)}
		}
		return articlesLoadedMsg{sourceID: sourceID, res: loader.Load(ctx, src)}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		if a.loading || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case articlesLoadedMsg:
		if msg.sourceID != a.activeSource {
			return a, nil
		}
		a.loading = false
		a.loaded = true
		a.res = msg.res
		if msg.res.Err != nil {
			a.log.Warn("load finished with error", "source", msg.sourceID, "stale", msg.res.Stale, "error", msg.res.Err)
		}
		a.reconcileNow()
		return a, nil

	case refreshDoneMsg:
		if msg.sourceID != a.activeSource {
			return a, nil
		}
		a.refreshing = false
		a.loaded = true
		a.res = msg.res
		a.reconcileNow()
		return a, nil

	case debounceMsg:
		return a.commitDebounce(msg)

	case openErrMsg:
		a.openErr = msg.err
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp:
		a.mode = modeBrowse
		return a, nil
	}
	return a.handleBrowseKey(msg)
}

func (a *App) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.openErr = nil

	switch msg.String() {
	case "q", "esc":
		return a, tea.Quit

	case "?":
		a.mode = modeHelp

	case "/":
		a.mode = modeSearch
		a.searchInput.SetValue(a.store.Current().Q)
		a.searchInput.CursorEnd()
		return a, a.searchInput.Focus()

	case "f", "tab":
		a.mode = modeFilter
		a.panelRow = 0

	case "j", "down":
		if page := a.pageArticles(); a.cursor < len(page)-1 {
			a.cursor++
		}

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}

	case "g", "home":
		a.cursor = 0

	case "G", "end":
		if page := a.pageArticles(); len(page) > 0 {
			a.cursor = len(page) - 1
		}

	case "n", "right", "l":
		return a, a.gotoPage(a.store.Current().Page + 1)

	case "p", "left", "h":
		return a, a.gotoPage(a.store.Current().Page - 1)

	case "r":
		if !a.refreshing && !a.loading {
			a.refreshing = true
			return a, tea.Batch(a.spinner.Tick, a.loadCmd(a.activeSource, true))
		}

	case "x":
		// Reset every filter but stay on the current source.
		next := a.store.Defaults()
		next.Source = a.store.Current().Source
		if !filtersEqual(next, a.store.Current()) {
			return a, a.applySpec(next, false)
		}

	case "[":
		if a.hist.Back() {
			return a, a.resyncFromHistory()
		}

	case "]":
		if a.hist.Forward() {
			return a, a.resyncFromHistory()
		}

	case "o", "enter":
		if page := a.pageArticles(); a.cursor < len(page) {
			return a, openCmd(page[a.cursor].DisplayURL())
		}
	}
	return a, nil
}

func openCmd(url string) tea.Cmd {
	if url == article.FallbackURL {
		return nil
	}
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.mode = modeBrowse
		a.searchInput.Blur()
		a.searchSeq++ // supersede any pending debounce tick
		q := strings.TrimSpace(a.searchInput.Value())
		cur := a.store.Current()
		if q != cur.Q || cur.Page != 1 {
			next := cur
			next.Q = q
			next.Page = 1
			return a, a.applySpec(next, false)
		}
		return a, nil

	case "esc":
		a.mode = modeBrowse
		a.searchInput.Blur()
		a.searchSeq++
		a.searchInput.SetValue(a.store.Current().Q)
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	a.searchSeq++
	return a, tea.Batch(cmd, a.debounceCmd(a.searchSeq))
}

func (a *App) debounceCmd(seq int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

// commitDebounce applies the search box contents once typing has paused.
// A stale sequence number means more keystrokes arrived after this tick
// was scheduled.
func (a *App) commitDebounce(msg debounceMsg) (tea.Model, tea.Cmd) {
	if msg.seq != a.searchSeq || a.mode != modeSearch {
		return a, nil
	}
	q := strings.TrimSpace(a.searchInput.Value())
	cur := a.store.Current()
	if q == cur.Q {
		return a, nil
	}
	next := cur
	next.Q = q
	next.Page = 1
	return a, a.applySpec(next, false)
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := a.panelRows()
	if a.panelRow >= len(rows) {
		a.panelRow = len(rows) - 1
	}

	switch msg.String() {
	case "esc", "f", "tab", "q":
		a.mode = modeBrowse

	case "j", "down":
		if a.panelRow < len(rows)-1 {
			a.panelRow++
		}

	case "k", "up":
		if a.panelRow > 0 {
			a.panelRow--
		}

	case "h", "left":
		return a, a.cycleRow(rows[a.panelRow], -1)

	case "l", "right", "enter", " ":
		return a, a.cycleRow(rows[a.panelRow], 1)

	case "x":
		next := a.store.Defaults()
		next.Source = a.store.Current().Source
		if !filtersEqual(next, a.store.Current()) {
			return a, a.applySpec(next, false)
		}
	}
	return a, nil
}

// noisyTag floods the devto tag facet, so it never surfaces as a
// suggestion. Explicitly selected tags still show.
const noisyTag = "ai"

func (a *App) tagOptions() []string {
	top := article.TopTags(a.res.Articles, a.cfg.GetTopTags())
	top = slices.DeleteFunc(top, func(t string) bool { return strings.EqualFold(t, noisyTag) })
	return article.TagOptions(a.store.Current().Tags, top)
}

func (a *App) panelRows() []panelRow {
	return buildPanelRows(a.tagOptions())
}

// cycleRow steps the focused panel row's value. Any change resets the page
// to 1 and commits as a history-visible update.
func (a *App) cycleRow(row panelRow, delta int) tea.Cmd {
	cur := a.store.Current()
	next := cur

	switch row.kind {
	case rowSource:
		next.Source = cycle(a.cfg.SourceIDs(), cur.Source, delta)
	case rowAuthor:
		options := append([]string{urlstate.AuthorAll}, article.UniqueAuthors(a.res.Articles)...)
		next.Author = cycle(options, cur.Author, delta)
	case rowSort:
		next.Sort = cycle(a.sortsFor(cur.Source), cur.Sort, delta)
	case rowRange:
		next.Range = cycle(urlstate.Ranges, cur.Range, delta)
	case rowMinComments:
		next.MinComments = cycleInt(urlstate.MinCommentsOptions, cur.MinComments, delta)
	case rowTag:
		next.Tags = article.ToggleTag(cur.Tags, row.tag)
	}

	if filtersEqual(next, cur) {
		return nil
	}
	next.Page = 1
	return a.applySpec(next, false)
}

// applySpec installs a new filter specification and runs the follow-up
// work: switching sources kicks off a load, everything else reconciles in
// place.
func (a *App) applySpec(next article.Filters, replace bool) tea.Cmd {
	prev := a.store.Current()
	a.store.Update(next, replace)
	return a.afterSpecChange(prev)
}

func (a *App) afterSpecChange(prev article.Filters) tea.Cmd {
	cur := a.store.Current()
	a.cursor = 0

	if cur.Source != a.activeSource {
		return a.switchSource(cur.Source)
	}
	if cur.Q != prev.Q && a.mode != modeSearch {
		a.searchInput.SetValue(cur.Q)
	}
	a.reconcileNow()
	return nil
}

// resyncFromHistory re-reads the filter state after back/forward moved the
// history cursor underneath the store.
func (a *App) resyncFromHistory() tea.Cmd {
	prev := a.store.Current()
	a.store.Resync()
	return a.afterSpecChange(prev)
}

func (a *App) switchSource(sourceID string) tea.Cmd {
	a.activeSource = sourceID
	a.loaded = false
	a.loading = true
	a.res = query.Result{}
	if a.meta != nil {
		if err := a.meta.SetMeta(cache.KeyLastSource, sourceID); err != nil {
			a.log.Warn("persist last source", "error", err)
		}
	}
	return tea.Batch(a.spinner.Tick, a.loadCmd(sourceID, false))
}

// reconcileNow applies the corrective rules against the loaded record set
// and installs any correction as a replace update, so corrections never
// pollute the navigation history.
func (a *App) reconcileNow() {
	if !a.loaded {
		return
	}
	corrected, changed := reconcile(a.store.Current(), a.res.Articles, a.cfg.GetPageSize(), a.sortsFor)
	if changed {
		a.store.Update(corrected, true)
	}
	if page := a.pageArticles(); a.cursor >= len(page) {
		a.cursor = 0
	}
}

func (a *App) sortsFor(sourceID string) []string {
	src, ok := a.cfg.SourceByID(sourceID)
	if !ok {
		return nil
	}
	return article.SortValues(article.SortOptionsForSource(src.Type))
}

func (a *App) filtered() []article.Article {
	return article.FilterAndSort(a.res.Articles, a.store.Current())
}

func (a *App) pageArticles() []article.Article {
	return pageSlice(a.filtered(), a.store.Current().Page, a.cfg.GetPageSize())
}

func (a *App) gotoPage(page int) tea.Cmd {
	cur := a.store.Current()
	pages := totalPages(len(a.filtered()), a.cfg.GetPageSize())
	page = clampPage(page, pages)
	if page == cur.Page {
		return nil
	}
	next := cur
	next.Page = page
	return a.applySpec(next, false)
}
