package tui

import (
	"fmt"
	"strings"

	"catex/internal/article"
	"catex/internal/urlstate"
)

type rowKind int

const (
	rowSource rowKind = iota
	rowAuthor
	rowSort
	rowRange
	rowMinComments
	rowTag
)

// panelRow is one focusable line of the filter panel. Tag rows carry the
// tag they toggle; the fixed rows cycle their value in place.
type panelRow struct {
	kind rowKind
	tag  string
}

func buildPanelRows(tagOptions []string) []panelRow {
	rows := []panelRow{
		{kind: rowSource},
		{kind: rowAuthor},
		{kind: rowSort},
		{kind: rowRange},
		{kind: rowMinComments},
	}
	for _, tag := range tagOptions {
		rows = append(rows, panelRow{kind: rowTag, tag: tag})
	}
	return rows
}

func rangeLabel(value string) string {
	if value == "" || value == article.RangeAll {
		return "All time"
	}
	return "Last " + value + " days"
}

func minCommentsLabel(n int) string {
	if n <= 0 {
		return "Any"
	}
	return fmt.Sprintf("%d+", n)
}

func (a *App) renderPanel(width, height int) string {
	cur := a.store.Current()
	rows := a.panelRows()

	src, hasSrc := a.cfg.SourceByID(cur.Source)
	sourceLabel := cur.Source
	if hasSrc && src.Label != "" {
		sourceLabel = src.Label
	}
	authorLabel := cur.Author
	if authorLabel == "" || authorLabel == urlstate.AuthorAll {
		authorLabel = "All authors"
	}

	var b strings.Builder
	b.WriteString(panelLabelStyle.Render("Filters"))
	b.WriteString("\n\n")

	for i, row := range rows {
		var label, value string
		switch row.kind {
		case rowSource:
			label, value = "Source", sourceLabel
		case rowAuthor:
			label, value = "Author", authorLabel
		case rowSort:
			label, value = "Sort", article.SortLabel(cur.Sort)
		case rowRange:
			label, value = "Range", rangeLabel(cur.Range)
		case rowMinComments:
			label, value = "Comments", minCommentsLabel(cur.MinComments)
		case rowTag:
			label = "Tag"
			mark := "[ ]"
			if tagSelected(cur.Tags, row.tag) {
				mark = "[x]"
			}
			value = mark + " " + row.tag
		}

		line := truncate(fmt.Sprintf("%-9s %s", label, value), width-6)
		if a.mode == modeFilter && i == a.panelRow {
			b.WriteString(panelSelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + panelValueStyle.Render(line))
		}
		b.WriteString("\n")
	}

	style := panelStyle
	if a.mode == modeFilter {
		style = panelActiveStyle
	}
	return style.Width(width).Height(height).Render(b.String())
}

func tagSelected(selected []string, tag string) bool {
	for _, t := range selected {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
