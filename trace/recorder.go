package trace

import "sync"

// Recorder emits events into a Trace on behalf of one execution context.
// It owns a private scope stack: Record parents new events on the top of
// the stack, StartScope pushes, EndScope pops. Because every concurrent
// flow gets its own recorder, nesting in one flow can never leak into
// another.
type Recorder struct {
	tr *Trace

	mu       sync.Mutex
	agent    string
	threadID string
	runID    string
	scopes   []string
}

// NewRecorder creates a recorder bound to an agent and thread. The run ID
// is attached later via SetRun once a run exists.
func NewRecorder(t *Trace, agent, threadID string) *Recorder {
	return &Recorder{tr: t, agent: agent, threadID: threadID}
}

// SetRun attaches a run ID; subsequent events carry it.
func (r *Recorder) SetRun(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runID = runID
}

// Agent returns the agent name this recorder emits for.
func (r *Recorder) Agent() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.agent
}

// ThreadID returns the bound thread ID.
func (r *Recorder) ThreadID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.threadID
}

// RunID returns the currently attached run ID.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.runID
}

// Trace returns the underlying trace.
func (r *Recorder) Trace() *Trace {
	return r.tr
}

// Record appends an event parented on the current scope and returns its
// ID. With an empty scope stack the event is a root.
func (r *Recorder) Record(typ EventType, details, metadata map[string]any) string {
	r.mu.Lock()
	parent := ""
	if n := len(r.scopes); n > 0 {
		parent = r.scopes[n-1]
	}
	ev := Event{
		Type:     typ,
		Agent:    r.agent,
		RunID:    r.runID,
		ThreadID: r.threadID,
		ParentID: parent,
		Details:  details,
		Metadata: metadata,
	}
	r.mu.Unlock()

	return r.tr.Append(ev).ID
}

// StartScope pushes an event ID; events recorded afterwards become its
// children until the matching EndScope.
func (r *Recorder) StartScope(eventID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scopes = append(r.scopes, eventID)
}

// EndScope pops the innermost scope. Popping an empty stack is a no-op.
func (r *Recorder) EndScope() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.scopes); n > 0 {
		r.scopes = r.scopes[:n-1]
	}
}

// Scoped runs fn inside the scope of eventID, guaranteeing the scope is
// closed exactly once even when fn returns an error.
func (r *Recorder) Scoped(eventID string, fn func() error) error {
	r.StartScope(eventID)
	defer r.EndScope()

	return fn()
}

// Depth returns the current scope nesting depth.
func (r *Recorder) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.scopes)
}
