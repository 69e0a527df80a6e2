package tool

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentswarm/internal/util"
)

// Func is the implementation signature wrapped by FunctionTool.
type Func func(tc *Context, args map[string]any) (string, error)

// FunctionToolOptions configures a FunctionTool.
type FunctionToolOptions struct {
	// Parameters is the JSON schema for the tool's arguments. Defaults to
	// an empty object schema accepting no particular fields.
	Parameters map[string]any
}

// FunctionTool adapts a plain Go function into a Tool. Arguments are
// validated against the declared schema before the function runs, and all
// failures are normalized to *Error with consistent codes:
//
//	validation failure -> VALIDATION_ERROR
//	function error     -> EXECUTION_ERROR
//	*Error returned    -> forwarded unchanged, code preserved
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
}

// NewFunctionTool constructs a tool from a name, a model-facing
// description and an implementation. Declare the argument schema with
// WithParameters or WithParametersFromStruct.
func NewFunctionTool(name, description string, fn Func, optFns ...func(o *FunctionToolOptions)) *FunctionTool {
	opts := FunctionToolOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}
	if opts.Parameters == nil {
		opts.Parameters = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  opts.Parameters,
		fn:          fn,
	}
}

// WithParameters sets an explicit JSON schema for the tool's arguments.
func WithParameters(parameters map[string]any) func(o *FunctionToolOptions) {
	return func(o *FunctionToolOptions) {
		o.Parameters = parameters
	}
}

// WithParametersFromStruct derives the schema from a struct's fields via
// reflection; json tags name the properties and `description` tags
// annotate them.
func WithParametersFromStruct(structType any) func(o *FunctionToolOptions) {
	return func(o *FunctionToolOptions) {
		o.Parameters = util.CreateSchema(structType)
	}
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call implements Tool: validate, execute, normalize errors.
func (t *FunctionTool) Call(tc *Context, args map[string]any) (string, error) {
	start := time.Now()
	tc.Logger.Debug("tool.call.start", "tool", t.name, "call_id", tc.CallID)

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		tc.Logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return "", &Error{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidationError,
		}
	}

	result, err := t.fn(tc, args)
	if err != nil {
		if toolErr, ok := err.(*Error); ok {
			tc.Logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)

			return "", toolErr
		}

		tc.Logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return "", &Error{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecutionError,
		}
	}

	tc.Logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
