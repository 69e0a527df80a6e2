package agency

import "github.com/hupe1980/agentswarm/logging"

// Callbacks hooks into the Execute lifecycle. Implementations run
// synchronously on the calling goroutine, in registration order, so they
// should be fast and must not panic. They observe execution; they cannot
// veto it.
type Callbacks interface {
	// BeforeExecute runs after the thread is resolved, before processing.
	BeforeExecute(threadID, message string)

	// AfterExecute runs after a successful run with the final response.
	AfterExecute(threadID, response string)

	// OnError runs when execution fails: unknown thread, a processing
	// error, or a run that ended in the failed state.
	OnError(threadID string, err error)
}

// NoOpCallbacks ignores every hook. Embed it to implement only the hooks
// you care about.
type NoOpCallbacks struct{}

// BeforeExecute implements Callbacks.
func (NoOpCallbacks) BeforeExecute(string, string) {}

// AfterExecute implements Callbacks.
func (NoOpCallbacks) AfterExecute(string, string) {}

// OnError implements Callbacks.
func (NoOpCallbacks) OnError(string, error) {}

// FuncCallbacks adapts plain functions to the Callbacks interface. Nil
// fields are skipped.
type FuncCallbacks struct {
	Before  func(threadID, message string)
	After   func(threadID, response string)
	Failure func(threadID string, err error)
}

// BeforeExecute implements Callbacks.
func (f FuncCallbacks) BeforeExecute(threadID, message string) {
	if f.Before != nil {
		f.Before(threadID, message)
	}
}

// AfterExecute implements Callbacks.
func (f FuncCallbacks) AfterExecute(threadID, response string) {
	if f.After != nil {
		f.After(threadID, response)
	}
}

// OnError implements Callbacks.
func (f FuncCallbacks) OnError(threadID string, err error) {
	if f.Failure != nil {
		f.Failure(threadID, err)
	}
}

// LoggingCallbacks logs every lifecycle hook through the given logger.
type LoggingCallbacks struct {
	Logger logging.Logger
}

// BeforeExecute implements Callbacks.
func (c LoggingCallbacks) BeforeExecute(threadID, message string) {
	c.Logger.Info("execute started", "thread_id", threadID, "message", message)
}

// AfterExecute implements Callbacks.
func (c LoggingCallbacks) AfterExecute(threadID, response string) {
	c.Logger.Info("execute finished", "thread_id", threadID, "response", response)
}

// OnError implements Callbacks.
func (c LoggingCallbacks) OnError(threadID string, err error) {
	c.Logger.Error("execute failed", "thread_id", threadID, "error", err)
}

func (a *Agency) fireBeforeExecute(threadID, message string) {
	for _, cb := range a.callbacks {
		cb.BeforeExecute(threadID, message)
	}
}

func (a *Agency) fireAfterExecute(threadID, response string) {
	for _, cb := range a.callbacks {
		cb.AfterExecute(threadID, response)
	}
}

func (a *Agency) fireOnError(threadID string, err error) {
	for _, cb := range a.callbacks {
		cb.OnError(threadID, err)
	}
}
