package urlstate

import "catex/internal/article"

// History is the navigation surface the store mirrors its state into.
// Push records a new history entry; Replace rewrites the current one
// without adding a stop, which keeps corrective auto-adjustments invisible
// to the back button.
type History interface {
	Current() string
	Push(query string)
	Replace(query string)
}

// MemoryHistory is an in-process history stack. Pushing truncates any
// forward entries, matching browser semantics.
type MemoryHistory struct {
	entries []string
	index   int
}

func NewMemoryHistory(initial string) *MemoryHistory {
	return &MemoryHistory{entries: []string{initial}}
}

func (h *MemoryHistory) Current() string {
	return h.entries[h.index]
}

func (h *MemoryHistory) Push(query string) {
	h.entries = append(h.entries[:h.index+1], query)
	h.index = len(h.entries) - 1
}

func (h *MemoryHistory) Replace(query string) {
	h.entries[h.index] = query
}

// Back moves one entry back; reports whether it moved.
func (h *MemoryHistory) Back() bool {
	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

// Forward moves one entry forward; reports whether it moved.
func (h *MemoryHistory) Forward() bool {
	if h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

// Len returns the number of history entries.
func (h *MemoryHistory) Len() int {
	return len(h.entries)
}

// Store owns the current filter specification and keeps it synchronized
// with a History. It is the single writer: all mutations flow through
// Update, and external navigation is absorbed via Resync.
type Store struct {
	history  History
	defaults article.Filters
	allowed  Allowed
	current  article.Filters
}

// NewStore derives the initial specification from the history's current
// query string merged over defaults.
func NewStore(history History, defaults article.Filters, allowed Allowed) *Store {
	s := &Store{history: history, defaults: defaults, allowed: allowed}
	s.current = ParseQuery(history.Current(), defaults, allowed)
	return s
}

// Current returns the specification. The tag slice is copied so callers
// cannot mutate store state.
func (s *Store) Current() article.Filters {
	f := s.current
	f.Tags = copyTags(s.current.Tags)
	return f
}

// Defaults returns the default specification the store was built with.
func (s *Store) Defaults() article.Filters {
	f := s.defaults
	f.Tags = copyTags(s.defaults.Tags)
	return f
}

// Update installs a complete next specification and mirrors it into
// history: replace rewrites the current entry (corrective adjustments),
// otherwise a new entry is pushed (explicit user actions).
func (s *Store) Update(next article.Filters, replace bool) {
	s.current = next
	query := EncodeQuery(next, s.defaults)
	if replace {
		s.history.Replace(query)
	} else {
		s.history.Push(query)
	}
}

// Resync re-derives the specification from the history's current entry.
// Call after external navigation (back/forward).
func (s *Store) Resync() article.Filters {
	s.current = ParseQuery(s.history.Current(), s.defaults, s.allowed)
	return s.Current()
}
