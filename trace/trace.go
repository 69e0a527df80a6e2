package trace

import (
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentswarm/core"
)

// Filter narrows the events returned by Trace.Events. Filters AND
// together.
type Filter func(*Event) bool

// WithType keeps events of the given type.
func WithType(typ EventType) Filter {
	return func(e *Event) bool { return e.Type == typ }
}

// WithAgent keeps events emitted by the named agent.
func WithAgent(agent string) Filter {
	return func(e *Event) bool { return e.Agent == agent }
}

// WithRun keeps events belonging to the given run.
func WithRun(runID string) Filter {
	return func(e *Event) bool { return e.RunID == runID }
}

// WithThread keeps events belonging to the given thread.
func WithThread(threadID string) Filter {
	return func(e *Event) bool { return e.ThreadID == threadID }
}

// Since keeps events recorded at or after t.
func Since(t time.Time) Filter {
	return func(e *Event) bool { return !e.Timestamp.Before(t) }
}

// Until keeps events recorded at or before t.
func Until(t time.Time) Filter {
	return func(e *Event) bool { return !e.Timestamp.After(t) }
}

// Trace is an append-only event store. Stored events are never mutated;
// every accessor returns copies, so snapshots held by callers stay valid
// while the trace keeps growing.
type Trace struct {
	mu     sync.RWMutex
	events []Event
	byID   map[string]int
}

// New creates an empty trace.
func New() *Trace {
	return &Trace{byID: make(map[string]int)}
}

// Append assigns ev an ID and timestamp, stores it, and returns a copy of
// the stored event. ParentID is taken as given, which lets recorders
// thread scope relationships through.
func (t *Trace) Append(ev Event) *Event {
	ev.ID = core.NewID()
	ev.Timestamp = time.Now()
	ev = ev.clone()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, ev)
	t.byID[ev.ID] = len(t.events) - 1

	out := ev.clone()
	return &out
}

// CreateEvent records a root event (no parent). Use a Recorder when the
// event should inherit the current scope.
func (t *Trace) CreateEvent(typ EventType, agent, runID, threadID string, details, metadata map[string]any) *Event {
	return t.Append(Event{
		Type:     typ,
		Agent:    agent,
		RunID:    runID,
		ThreadID: threadID,
		Details:  details,
		Metadata: metadata,
	})
}

// Get returns the event with the given ID.
func (t *Trace) Get(id string) (*Event, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	ev := t.events[idx].clone()
	return &ev, true
}

// Events returns all events passing every filter, in creation order.
func (t *Trace) Events(filters ...Filter) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Event, 0, len(t.events))
outer:
	for i := range t.events {
		for _, f := range filters {
			if !f(&t.events[i]) {
				continue outer
			}
		}
		out = append(out, t.events[i].clone())
	}
	return out
}

// Chain returns the ancestry of the event with the given ID, ordered root
// to leaf and including the event itself. Unknown IDs yield an empty
// chain; a dangling parent link ends the walk.
func (t *Trace) Chain(id string) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var reversed []Event
	idx, ok := t.byID[id]
	for ok {
		ev := t.events[idx]
		reversed = append(reversed, ev.clone())
		if ev.ParentID == "" {
			break
		}
		idx, ok = t.byID[ev.ParentID]
	}

	chain := make([]Event, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		chain = append(chain, reversed[i])
	}
	return chain
}

// Len returns the number of recorded events.
func (t *Trace) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.events)
}

// FormatEvents renders the filtered events, separated by blank lines.
func (t *Trace) FormatEvents(filters ...Filter) string {
	events := t.Events(filters...)
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		parts = append(parts, ev.Format())
	}
	return strings.Join(parts, "\n\n")
}

// FormatChain renders the ancestry of one event, separated by blank lines.
func FormatChain(t *Trace, id string) string {
	chain := t.Chain(id)
	parts := make([]string, 0, len(chain))
	for _, ev := range chain {
		parts = append(parts, ev.Format())
	}
	return strings.Join(parts, "\n\n")
}
