// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities with schema-validated arguments, uniform
// error classification and traced execution.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentswarm/logging"
	"github.com/hupe1980/agentswarm/memory"
)

// Tool is a capability an agent can call. Implementations should provide
// descriptive snake_case names, a JSON-schema parameter map the model can
// follow, and must be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description tells the model when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with decoded, schema-conforming arguments.
	Call(tc *Context, args map[string]any) (string, error)
}

// Context carries everything a tool may need during one call: the request
// context for cancellation, identifiers for correlation, a logger and the
// agency-wide shared state. Tools never reach back into the orchestration
// layer; capabilities beyond this context are injected at construction.
type Context struct {
	context.Context

	// CallID is the tool call identifier issued by the model.
	CallID string

	// RunID and ThreadID locate the call within the orchestration.
	RunID    string
	ThreadID string

	// Agent is the name of the calling agent.
	Agent string

	Logger logging.Logger

	// State is shared across all agents of an agency.
	State *memory.SharedState
}

// NewContext creates a minimal call context, useful for invoking tools
// directly in tests or scripts.
func NewContext(ctx context.Context) *Context {
	return &Context{
		Context: ctx,
		Logger:  logging.NoOpLogger{},
		State:   memory.NewSharedState(),
	}
}

// Error codes distinguishing why a tool call failed.
const (
	// CodeValidationError marks arguments that are present but violate the
	// tool's schema or domain rules.
	CodeValidationError = "VALIDATION_ERROR"

	// CodeExecutionError marks a failure inside the tool's own logic.
	CodeExecutionError = "EXECUTION_ERROR"

	// CodeInvalidArguments marks argument payloads that could not be
	// decoded at all.
	CodeInvalidArguments = "INVALID_ARGUMENTS"
)

// Error is an execution-class failure: the tool was found and either ran
// and failed or refused its input. Runs survive these; the message becomes
// the tool output the model gets to see.
type Error struct {
	Tool    string         `json:"tool"`
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewError creates an Error with the given classification code.
func NewError(tool, message, code string) *Error {
	return &Error{Tool: tool, Message: message, Code: code}
}

// NotFoundError is a resolution-class failure: the requested tool is not
// registered at all. Unlike Error this fails the whole run, since the
// model asked for a capability that does not exist.
type NotFoundError struct {
	Tool string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Tool)
}
