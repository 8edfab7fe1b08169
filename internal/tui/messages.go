package tui

import "catex/internal/query"

// articlesLoadedMsg carries the outcome of a background load for a source.
// The source ID guards against a response from a source the user already
// navigated away from.
type articlesLoadedMsg struct {
	sourceID string
	res      query.Result
}

// refreshDoneMsg is the manual-refresh variant of articlesLoadedMsg.
type refreshDoneMsg struct {
	sourceID string
	res      query.Result
}

// debounceMsg fires when a search debounce window elapses. Only the most
// recently issued sequence number is honoured; earlier ticks were
// superseded by further typing.
type debounceMsg struct {
	seq int
}

// openErrMsg reports a failed attempt to open an article in the browser.
type openErrMsg struct {
	err error
}
