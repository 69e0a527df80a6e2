package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentswarm/core"
	"github.com/hupe1980/agentswarm/model"
	"github.com/hupe1980/agentswarm/tool"
	"github.com/hupe1980/agentswarm/trace"
)

const previewLimit = 120

// ProcessOptions configures a single Process call.
type ProcessOptions struct {
	// Recorder scopes the run's events under a caller-owned event, so an
	// agency can nest agent activity under its run_start. Defaults to a
	// fresh recorder on the thread's trace.
	Recorder *trace.Recorder

	// AdditionalInstructions are appended to the agent's system prompt
	// for this call only.
	AdditionalInstructions string
}

// WithRecorder records the run's events through rec.
func WithRecorder(rec *trace.Recorder) func(o *ProcessOptions) {
	return func(o *ProcessOptions) {
		o.Recorder = rec
	}
}

// WithAdditionalInstructions appends call-scoped instructions to the
// system prompt.
func WithAdditionalInstructions(instructions string) func(o *ProcessOptions) {
	return func(o *ProcessOptions) {
		o.AdditionalInstructions = instructions
	}
}

// Process runs one input through the agent: model invocation, tool
// dispatch if the model asks for it, and a follow-up invocation that
// folds tool results into the final answer.
//
// Once a run has started, operational failures (gateway errors, unknown
// tools, call budget exhaustion, cancellation) mark the run failed and
// come back as a readable "Error: ..." string with a nil error, so
// callers always have displayable text. Tool execution failures do not
// fail the run; their error text feeds the follow-up round instead.
func (t *Thread) Process(ctx context.Context, input string, optFns ...func(o *ProcessOptions)) (string, error) {
	if t.agent == nil {
		return "", fmt.Errorf("thread %s has no agent", t.id)
	}
	if t.gateway == nil {
		return "", fmt.Errorf("thread %s has no model gateway", t.id)
	}

	var opts ProcessOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	run := core.NewRun(t.agent.Name())
	t.addRun(run)

	rec := opts.Recorder
	if rec == nil {
		rec = trace.NewRecorder(t.tr, t.agent.Name(), t.id)
	}
	rec.SetRun(run.ID)

	run.Start()
	limiter := core.NewCallLimiter(t.maxCalls)

	t.logger.Info("run started",
		"thread_id", t.id, "run_id", run.ID, "agent", t.agent.Name())

	startID := rec.Record(trace.EventAgentStart,
		map[string]any{"message_preview": preview(input)}, nil)
	rec.StartScope(startID)
	defer rec.EndScope()

	// History must exclude the message being processed; Request.Input
	// carries it.
	history := t.mem.Messages()
	t.mem.AddMessage(core.NewMessage(core.RoleHuman, input))
	rec.Record(trace.EventMessageReceived,
		map[string]any{"role": core.RoleHuman, "message_preview": preview(input)}, nil)

	system, err := t.agent.SystemPrompt(ctx, t.Metadata())
	if err != nil {
		return t.failRun(run, rec, fmt.Errorf("resolve instructions: %w", err))
	}
	if opts.AdditionalInstructions != "" {
		system += "\n\n" + opts.AdditionalInstructions
	}

	req := &model.Request{
		ModelID:     t.agent.ModelID(),
		System:      system,
		Input:       input,
		History:     history,
		Temperature: t.agent.Temperature(),
		MaxTokens:   t.agent.MaxTokens(),
		Tools:       t.toolDefinitions(),
	}

	resp, err := t.invoke(ctx, limiter, req)
	if err != nil {
		return t.failRun(run, rec, err)
	}

	response := resp.Content

	if resp.Type == model.ResponseTypeToolCall {
		response, err = t.runToolTurn(ctx, run, rec, limiter, input, system, resp.ToolCalls)
		if err != nil {
			return t.failRun(run, rec, err)
		}
	}

	t.mem.AddMessage(core.NewMessageWithMetadata(core.RoleAssistant, response,
		map[string]any{"agent": t.agent.Name()}))
	rec.Record(trace.EventMessageSent,
		map[string]any{"role": core.RoleAssistant, "message_preview": preview(response)}, nil)
	rec.Record(trace.EventAgentComplete,
		map[string]any{"response_preview": preview(response)}, nil)

	run.Complete()
	t.logger.Info("run completed",
		"thread_id", t.id, "run_id", run.ID, "model_calls", limiter.Count())

	return response, nil
}

// runToolTurn dispatches the requested tool batch and folds the results
// into an answer with one follow-up invocation. Dispatch resolution
// errors (unknown tool, cancellation) are returned and fail the run;
// tool execution errors already live in the outputs as text and flow
// into the follow-up like any other result.
func (t *Thread) runToolTurn(ctx context.Context, run *core.Run, rec *trace.Recorder,
	limiter *core.CallLimiter, input, system string, calls []core.ToolCall,
) (string, error) {
	run.MarkRequiresAction(calls)

	outputs, dispatchErr := t.dispatcher.Dispatch(ctx, rec, calls)

	run.Resume()

	if dispatchErr != nil {
		var toolErr *tool.Error
		if !errors.As(dispatchErr, &toolErr) {
			return "", dispatchErr
		}
	}

	followUp := &model.Request{
		ModelID:     t.agent.ModelID(),
		System:      system,
		Input:       followUpPrompt(input, calls, outputs),
		Temperature: t.agent.Temperature(),
		MaxTokens:   t.agent.MaxTokens(),
	}

	resp, err := t.invoke(ctx, limiter, followUp)
	if err != nil {
		return "", err
	}

	if resp.Type == model.ResponseTypeToolCall {
		// One tool round per run. Hand back the raw result rather than
		// looping.
		t.logger.Warn("model requested tools on follow-up, returning tool output",
			"thread_id", t.id, "run_id", run.ID)

		if len(outputs) > 0 {
			return outputs[0].Output, nil
		}
		return "", nil
	}

	return resp.Content, nil
}

// invoke counts the call against the run's budget before hitting the
// gateway.
func (t *Thread) invoke(ctx context.Context, limiter *core.CallLimiter, req *model.Request) (*model.Response, error) {
	if err := limiter.Increment(); err != nil {
		return nil, err
	}
	return t.gateway.Invoke(ctx, req)
}

// failRun marks the run failed and converts the failure into displayable
// text. The nil error is deliberate: by this point the caller is owed an
// answer string, not an error to unwrap.
func (t *Thread) failRun(run *core.Run, rec *trace.Recorder, err error) (string, error) {
	run.Fail(err)
	rec.Record(trace.EventError, map[string]any{"error": err.Error()}, nil)

	t.logger.Error("run failed",
		"thread_id", t.id, "run_id", run.ID, "error", err)

	return fmt.Sprintf("Error: %v", err), nil
}

// toolDefinitions returns the native tool payload for the request. Agents
// on the inline protocol describe tools in the system prompt instead, so
// the request carries none.
func (t *Thread) toolDefinitions() []model.ToolDefinition {
	if t.agent.InlineToolProtocol() || t.agent.Tools().Len() == 0 {
		return nil
	}
	return t.agent.Tools().Definitions()
}

func followUpPrompt(input string, calls []core.ToolCall, outputs []core.ToolOutput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The user asked: %s\n\n", input)
	for i, out := range outputs {
		name := out.ToolCallID
		if i < len(calls) {
			name = calls[i].Function.Name
		}
		fmt.Fprintf(&b, "Tool %s returned: %s\n", name, out.Output)
	}
	b.WriteString("\nAnswer the user's question using these results.")

	return b.String()
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit]) + "..."
}
