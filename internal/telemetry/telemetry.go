// Package telemetry provides fire-and-forget event reporting.
// Reporting never blocks a caller: events that cannot be queued are dropped.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event names emitted by the normalization and fetch pipeline.
const (
	EventInvalidTypedItem   = "invalid_typed_item"
	EventUnknownArticleType = "unknown_article_type"
	EventSchemaMismatch     = "schema_mismatch"
	EventFetchError         = "fetch_error"
)

// Reporter accepts named events with an arbitrary payload.
type Reporter interface {
	Report(name string, payload map[string]any)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Report(string, map[string]any) {}

// Recorder captures events in memory. Intended for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

type Event struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
	Time    time.Time      `json:"time"`
}

func (r *Recorder) Report(name string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Payload: payload, Time: time.Now()})
}

// Count returns how many events with the given name were reported.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// FileReporter appends events as NDJSON to a file. Events are handed to a
// background writer over a bounded queue; when the queue is full the event
// is dropped rather than blocking the caller.
type FileReporter struct {
	queue chan Event
	done  chan struct{}
	file  *os.File

	mu     sync.Mutex
	closed bool
}

const queueSize = 64

func NewFileReporter(path string) (*FileReporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry file: %w", err)
	}

	r := &FileReporter{
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
		file:  f,
	}
	go r.writeLoop()
	return r, nil
}

func (r *FileReporter) Report(name string, payload map[string]any) {
	// Fetches can still be in flight when the app shuts down, so reports
	// may arrive after Close. Those are dropped, not sent on a closed queue.
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- Event{Name: name, Payload: payload, Time: time.Now()}:
	default:
		// Queue full. The sink is best-effort, losing an event is fine.
	}
}

func (r *FileReporter) writeLoop() {
	defer close(r.done)
	enc := json.NewEncoder(r.file)
	for e := range r.queue {
		// Encode errors are swallowed: there is nobody to report them to.
		_ = enc.Encode(e)
	}
}

// Close flushes queued events and closes the underlying file. Reports
// arriving after Close are silently dropped; Close itself is idempotent.
func (r *FileReporter) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	return r.file.Close()
}
