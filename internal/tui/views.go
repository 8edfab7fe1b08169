package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"catex/internal/article"
	"catex/internal/urlstate"
)

const panelWidth = 30

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	if a.mode == modeHelp {
		return a.renderHelp()
	}

	listWidth := a.width - panelWidth - 4
	if listWidth < 20 {
		listWidth = a.width - 4
	}
	mainHeight := a.height - 7
	if mainHeight < 4 {
		mainHeight = 4
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderSearchLine())
	b.WriteString("\n")
	b.WriteString(a.renderTagPills(listWidth))
	b.WriteString("\n")

	list := a.renderList(listWidth, mainHeight)
	if listWidth < a.width-4 {
		panel := a.renderPanel(panelWidth, mainHeight)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, " ", panel))
	} else {
		b.WriteString(list)
	}
	b.WriteString("\n")
	b.WriteString(a.renderStatusBar())
	return b.String()
}

func (a *App) renderHeader() string {
	title := headerStyle.Render("catex")
	date := headerDateStyle.Render(a.currentDate + " ")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(date)
	if gap < 0 {
		gap = 0
	}
	return title + strings.Repeat(" ", gap) + date
}

func (a *App) renderSearchLine() string {
	if a.mode == modeSearch {
		return " " + a.searchInput.View()
	}
	cur := a.store.Current()
	if cur.Q == "" {
		return " " + cardMetaStyle.Render("/ to search")
	}
	return " " + searchPromptStyle.Render("/ ") + panelValueStyle.Render(cur.Q)
}

// renderTagPills is the quick-glance row of selected and popular tags.
// Toggling happens in the filter panel.
func (a *App) renderTagPills(width int) string {
	cur := a.store.Current()
	options := a.tagOptions()
	if len(options) == 0 {
		return ""
	}

	var parts []string
	used := 1
	for _, tag := range options {
		var pill string
		if tagSelected(cur.Tags, tag) {
			pill = pillActiveStyle.Render(tag)
		} else {
			pill = pillInactiveStyle.Render(tag)
		}
		w := lipgloss.Width(pill) + 1
		if used+w > width {
			break
		}
		used += w
		parts = append(parts, pill)
	}
	return " " + strings.Join(parts, " ")
}

func (a *App) renderList(width, height int) string {
	style := listPaneStyle
	if a.mode == modeBrowse {
		style = listPaneActiveStyle
	}

	inner := width - 4
	var b strings.Builder

	switch {
	case a.loading:
		b.WriteString(spinnerStyle.Render(a.spinner.View()) + " Loading articles...\n\n")
		for i := 0; i < a.cfg.GetPageSize() && i < height/2; i++ {
			b.WriteString(skeletonStyle.Render(strings.Repeat("░", min(inner, 40))) + "\n")
			b.WriteString(skeletonStyle.Render(strings.Repeat("░", min(inner, 24))) + "\n")
		}

	case a.res.Err != nil && len(a.res.Articles) == 0:
		b.WriteString(errStyle.Render("Could not load articles.") + "\n\n")
		b.WriteString(panelValueStyle.Render(truncate(a.res.Err.Error(), inner)) + "\n\n")
		b.WriteString(cardMetaStyle.Render("r to retry"))

	case len(a.filtered()) == 0:
		b.WriteString(cardMetaStyle.Render("No articles match the current filters.") + "\n\n")
		b.WriteString(cardMetaStyle.Render("x to reset filters"))

	default:
		cur := a.store.Current()
		page := a.pageArticles()
		for i, art := range page {
			featured := cur.Page == 1 && i < featuredCount
			b.WriteString(a.renderCard(art, i == a.cursor, featured, inner))
		}
		b.WriteString("\n" + a.renderPageRow(inner))
	}

	return style.Width(width).Height(height).Render(b.String())
}

// featuredCount is the size of the featured shelf at the head of the
// filtered list.
const featuredCount = 3

func (a *App) renderCard(art article.Article, selected, featured bool, width int) string {
	marker := "  "
	titleStyle := cardTitleStyle
	if selected {
		marker = "> "
		titleStyle = cardSelectedStyle
	}
	title := marker + truncate(art.Title, width-6)
	if featured {
		title += " " + featuredStyle.Render("★")
	}

	plain := fmt.Sprintf("%s · %s · 💬 %d",
		art.AuthorName(),
		relativeLabel(art.Date),
		art.CommentCount,
	)
	meta := cardSourceStyle.Render(art.SourceType) + " · " +
		cardMetaStyle.Render(truncate(plain, width-4-len(art.SourceType)))

	shown := art.Tags
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for _, tag := range shown {
		pill := " " + cardTagStyle.Render(tag)
		if lipgloss.Width(meta)+lipgloss.Width(pill) > width-4 {
			break
		}
		meta += pill
	}

	return titleStyle.Render(title) + "\n" +
		"    " + meta + "\n"
}

func (a *App) renderPageRow(width int) string {
	cur := a.store.Current()
	total := len(a.filtered())
	pages := totalPages(total, a.cfg.GetPageSize())
	start, end := pageBounds(total, cur.Page, a.cfg.GetPageSize())

	left := fmt.Sprintf("Showing %d-%d of %d", start, end, total)
	if total == 0 {
		left = "Showing 0 of 0"
	}
	right := fmt.Sprintf("Page %d/%d  p prev  n next", cur.Page, pages)

	gap := width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return cardMetaStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (a *App) renderStatusBar() string {
	cur := a.store.Current()

	left := " " + activeFilterSummary(cur)
	if a.refreshing {
		left += " · " + a.spinner.View() + " refreshing"
	}

	var pills []string
	if a.res.Stale {
		pills = append(pills, stalePillStyle.Render("stale"))
	}
	if !a.loading && a.res.Err != nil {
		pills = append(pills, errStyle.Render("last refresh failed"))
	}
	if a.openErr != nil {
		pills = append(pills, errStyle.Render("open failed"))
	}
	if a.res.FromCache && !a.res.Stale {
		pills = append(pills, "cached")
	}
	if !a.res.UpdatedAt.IsZero() {
		pills = append(pills, "updated "+article.RelativeTime(a.res.UpdatedAt))
	}

	right := strings.Join(pills, " · ")
	if right != "" {
		right += " · "
	}
	switch a.mode {
	case modeSearch:
		right += "esc cancel  enter search "
	case modeFilter:
		right += "j/k move  h/l change  esc done "
	default:
		right += "/ search  f filter  r refresh  ? help  q quit "
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(a.width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

// activeFilterSummary compresses the non-default filters into the status
// bar label.
func activeFilterSummary(f article.Filters) string {
	parts := []string{f.Source}
	if f.Q != "" {
		parts = append(parts, fmt.Sprintf("q=%q", f.Q))
	}
	if f.Author != "" && f.Author != urlstate.AuthorAll {
		parts = append(parts, "by "+f.Author)
	}
	if f.Sort != "" && f.Sort != article.SortNewest {
		parts = append(parts, article.SortLabel(f.Sort))
	}
	if f.Range != "" && f.Range != article.RangeAll {
		parts = append(parts, rangeLabel(f.Range))
	}
	if f.MinComments > 0 {
		parts = append(parts, minCommentsLabel(f.MinComments)+" comments")
	}
	if len(f.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(f.Tags, " #"))
	}
	return strings.Join(parts, " · ")
}

func (a *App) renderHelp() string {
	rows := []struct{ key, desc string }{
		{"j/k", "move selection"},
		{"n/p", "next / previous page"},
		{"/", "search (debounced)"},
		{"f", "filter panel"},
		{"[ / ]", "history back / forward"},
		{"x", "reset filters"},
		{"r", "refresh current source"},
		{"o / enter", "open article in browser"},
		{"?", "this help"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("catex keys") + "\n\n")
	for _, r := range rows {
		b.WriteString("  " + panelSelectedStyle.Render(fmt.Sprintf("%-10s", r.key)) + " " + r.desc + "\n")
	}
	b.WriteString("\n" + cardMetaStyle.Render("  press any key to close"))
	return b.String()
}

func relativeLabel(date string) string {
	if t, ok := article.ParseDate(date); ok {
		return article.RelativeTime(t)
	}
	return "Unknown date"
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
