package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentswarm/core"
	"github.com/hupe1980/agentswarm/logging"
	"github.com/hupe1980/agentswarm/memory"
	"github.com/hupe1980/agentswarm/trace"
)

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Logger logging.Logger

	// State is handed to tools through their call context.
	State *memory.SharedState
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger logging.Logger) func(o *DispatcherOptions) {
	return func(o *DispatcherOptions) {
		o.Logger = logger
	}
}

// WithState sets the shared state passed to tools.
func WithState(state *memory.SharedState) func(o *DispatcherOptions) {
	return func(o *DispatcherOptions) {
		o.State = state
	}
}

// Dispatcher executes tool call batches sequentially in request order and
// records the tool_start / tool_complete / tool_error lifecycle for every
// call. Tool panics are recovered and surface as execution errors rather
// than taking down the run loop.
type Dispatcher struct {
	registry *Registry
	logger   logging.Logger
	state    *memory.SharedState
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{
		Logger: logging.NoOpLogger{},
		State:  memory.NewSharedState(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dispatcher{
		registry: registry,
		logger:   opts.Logger,
		state:    opts.State,
	}
}

// Dispatch runs the calls one by one. Outputs align with the incoming
// calls by position and ToolCallID. The first failure aborts the batch:
// the returned slice then ends with the failing call's output (Err set)
// and later calls never start. Every call that starts gets exactly one
// tool_start scope, closed before the next call begins.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *trace.Recorder, calls []core.ToolCall) ([]core.ToolOutput, error) {
	outputs := make([]core.ToolOutput, 0, len(calls))

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		output, err := d.dispatchOne(ctx, rec, call)
		outputs = append(outputs, output)
		if err != nil {
			return outputs, err
		}
	}

	return outputs, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, rec *trace.Recorder, call core.ToolCall) (core.ToolOutput, error) {
	name := call.Function.Name
	args, argsErr := call.ArgumentsMap()

	details := map[string]any{"tool": name}
	if argsErr == nil {
		details["arguments"] = args
	}
	startID := rec.Record(trace.EventToolStart, details, nil)
	rec.StartScope(startID)
	defer rec.EndScope()

	start := time.Now()
	result, err := d.executeCall(ctx, rec, call, name, args, argsErr)

	d.logger.Info("tool dispatched",
		"tool", name, "call_id", call.ID,
		"duration_ms", time.Since(start).Milliseconds(), "error", err != nil)

	if err != nil {
		rec.Record(trace.EventToolError, map[string]any{
			"tool":  name,
			"error": err.Error(),
		}, nil)

		return core.ToolOutput{ToolCallID: call.ID, Output: err.Error(), Err: err}, err
	}

	rec.Record(trace.EventToolComplete, map[string]any{
		"tool":      name,
		"arguments": args,
		"result":    result,
	}, nil)

	return core.ToolOutput{ToolCallID: call.ID, Output: result}, nil
}

func (d *Dispatcher) executeCall(ctx context.Context, rec *trace.Recorder, call core.ToolCall, name string, args map[string]any, argsErr error) (result string, err error) {
	impl, ok := d.registry.Get(name)
	if !ok {
		return "", &NotFoundError{Tool: name}
	}
	if argsErr != nil {
		return "", &Error{
			Tool:    name,
			Message: fmt.Sprintf("cannot decode arguments: %v", argsErr),
			Code:    CodeInvalidArguments,
		}
	}

	tc := &Context{
		Context:  ctx,
		CallID:   call.ID,
		RunID:    rec.RunID(),
		ThreadID: rec.ThreadID(),
		Agent:    rec.Agent(),
		Logger:   d.logger,
		State:    d.state,
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", name, "recover", r)
			err = &Error{
				Tool:    name,
				Message: fmt.Sprintf("panic: %v", r),
				Code:    CodeExecutionError,
			}
		}
	}()

	return impl.Call(tc, args)
}
