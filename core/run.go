package core

import (
	"errors"
	"sync"
	"time"
)

// ErrRunCancelled marks runs that were cancelled by the caller rather than
// failed by an operational error. Check with errors.Is against LastError.
var ErrRunCancelled = errors.New("cancelled by user")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run lifecycle states. Completed and failed are terminal.
const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// ActionSubmitToolOutputs is the required-action type for paused runs
// waiting on tool results.
const ActionSubmitToolOutputs = "submit_tool_outputs"

// RequiredAction describes what a requires_action run is waiting for.
type RequiredAction struct {
	Type      string
	ToolCalls []ToolCall
}

// Run tracks one message-processing execution on a thread from creation to
// a terminal state. Every transition is guarded: an illegal transition,
// including any transition out of a terminal state, is a no-op that
// reports false. Runs are safe for concurrent use.
type Run struct {
	ID        string
	AgentName string
	StartedAt time.Time
	Metadata  map[string]any

	mu             sync.Mutex
	status         RunStatus
	completedAt    *time.Time
	requiredAction *RequiredAction
	lastError      error
	toolCalls      []ToolCall
}

// NewRun creates a queued run for the named agent.
func NewRun(agentName string) *Run {
	return &Run{
		ID:        NewID(),
		AgentName: agentName,
		StartedAt: time.Now(),
		status:    RunStatusQueued,
	}
}

// Status returns the current lifecycle state.
func (r *Run) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// IsTerminal reports whether the run reached completed or failed.
func (r *Run) IsTerminal() bool {
	return r.Status().Terminal()
}

// CompletedAt returns when the run reached a terminal state, or nil.
func (r *Run) CompletedAt() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.completedAt == nil {
		return nil
	}
	t := *r.completedAt
	return &t
}

// RequiredAction returns the pending action of a requires_action run, or
// nil in any other state.
func (r *Run) RequiredAction() *RequiredAction {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.requiredAction == nil {
		return nil
	}
	return &RequiredAction{
		Type:      r.requiredAction.Type,
		ToolCalls: append([]ToolCall(nil), r.requiredAction.ToolCalls...),
	}
}

// LastError returns the error recorded by Fail or Cancel, or nil.
func (r *Run) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastError
}

// ToolCalls returns every tool call the run has requested so far.
func (r *Run) ToolCalls() []ToolCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]ToolCall(nil), r.toolCalls...)
}

// Start moves a queued run into in_progress.
func (r *Run) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RunStatusQueued {
		return false
	}
	r.status = RunStatusInProgress
	return true
}

// MarkRequiresAction pauses an in_progress run on a batch of tool calls,
// recording them both as the pending action and in the run's call history.
func (r *Run) MarkRequiresAction(calls []ToolCall) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RunStatusInProgress {
		return false
	}
	r.status = RunStatusRequiresAction
	r.requiredAction = &RequiredAction{
		Type:      ActionSubmitToolOutputs,
		ToolCalls: append([]ToolCall(nil), calls...),
	}
	r.toolCalls = append(r.toolCalls, calls...)
	return true
}

// Resume moves a requires_action run back to in_progress once its tool
// outputs have been produced, clearing the pending action.
func (r *Run) Resume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RunStatusRequiresAction {
		return false
	}
	r.status = RunStatusInProgress
	r.requiredAction = nil
	return true
}

// Complete finishes an in_progress run successfully.
func (r *Run) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RunStatusInProgress {
		return false
	}
	r.status = RunStatusCompleted
	now := time.Now()
	r.completedAt = &now
	return true
}

// Fail moves any non-terminal run to failed, recording err as LastError.
func (r *Run) Fail(err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.failLocked(err)
}

// Cancel fails a non-terminal run with ErrRunCancelled so callers can
// distinguish cancellation from operational failures. Cancelling a
// terminal run changes nothing and reports false.
func (r *Run) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.failLocked(ErrRunCancelled)
}

func (r *Run) failLocked(err error) bool {
	if r.status.Terminal() {
		return false
	}
	r.status = RunStatusFailed
	r.lastError = err
	r.requiredAction = nil
	now := time.Now()
	r.completedAt = &now
	return true
}

// RunSnapshot is a point-in-time copy of a run's observable state, safe to
// hold without further locking.
type RunSnapshot struct {
	ID             string
	AgentName      string
	Status         RunStatus
	StartedAt      time.Time
	CompletedAt    *time.Time
	RequiredAction *RequiredAction
	LastError      error
	ToolCalls      []ToolCall
}

// Snapshot captures the run's current state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := RunSnapshot{
		ID:        r.ID,
		AgentName: r.AgentName,
		Status:    r.status,
		StartedAt: r.StartedAt,
		LastError: r.lastError,
		ToolCalls: append([]ToolCall(nil), r.toolCalls...),
	}
	if r.completedAt != nil {
		t := *r.completedAt
		snap.CompletedAt = &t
	}
	if r.requiredAction != nil {
		snap.RequiredAction = &RequiredAction{
			Type:      r.requiredAction.Type,
			ToolCalls: append([]ToolCall(nil), r.requiredAction.ToolCalls...),
		}
	}
	return snap
}
