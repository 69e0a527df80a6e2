package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentswarm/internal/util"
	"github.com/hupe1980/agentswarm/logging"
	"github.com/hupe1980/agentswarm/model"
	"github.com/hupe1980/agentswarm/tool"
)

// DefaultTemperature is applied when no temperature is configured.
const DefaultTemperature = 0.7

// Options configures an Agent.
//
// Use functional options with New to override defaults.
type Options struct {
	Description string

	// Instruction is the agent's persona and task description. Static text
	// may contain {{.key}} template markers resolved against thread
	// metadata at prompt time.
	Instruction Instruction

	// Temperature in [0, 1]. Nil falls back to DefaultTemperature.
	Temperature *float64

	// MaxTokens caps the response length; zero lets the model family's
	// default apply.
	MaxTokens int

	// Tools to register at construction.
	Tools []tool.Tool

	// InlineToolProtocol switches tool exposure from the provider's native
	// tool API to a JSON protocol embedded in the system prompt.
	InlineToolProtocol bool

	Logger logging.Logger
}

// WithDescription sets the human-readable description.
func WithDescription(description string) func(o *Options) {
	return func(o *Options) {
		o.Description = description
	}
}

// WithInstructions sets a static instruction text.
func WithInstructions(text string) func(o *Options) {
	return func(o *Options) {
		o.Instruction = NewInstructionFromText(text)
	}
}

// WithInstructionsProvider sets a dynamic instruction source.
func WithInstructionsProvider(f func(ctx context.Context, meta map[string]any) (string, error)) func(o *Options) {
	return func(o *Options) {
		o.Instruction = NewInstructionFromFunc(f)
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) func(o *Options) {
	return func(o *Options) {
		o.Temperature = &temperature
	}
}

// WithMaxTokens caps response length.
func WithMaxTokens(maxTokens int) func(o *Options) {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

// WithTools registers tools at construction.
func WithTools(tools ...tool.Tool) func(o *Options) {
	return func(o *Options) {
		o.Tools = append(o.Tools, tools...)
	}
}

// WithInlineToolProtocol enables the prompt-embedded tool protocol.
func WithInlineToolProtocol(enabled bool) func(o *Options) {
	return func(o *Options) {
		o.InlineToolProtocol = enabled
	}
}

// WithLogger sets the agent's logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Agent is a named persona bound to a model family. Agents are immutable
// after construction except for tool registration and safe for concurrent
// use across threads.
type Agent struct {
	name               string
	description        string
	modelID            string
	instruction        Instruction
	temperature        *float64
	maxTokens          int
	inlineToolProtocol bool
	tools              *tool.Registry
	logger             logging.Logger
}

// New creates an agent. The name and model ID must be non-empty and the
// temperature must lie in [0, 1]; violations surface as configuration
// errors at construction, not at first use.
func New(name, modelID string, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Instruction: NewInstructionFromText(fmt.Sprintf("You are %s, a helpful assistant.", name)),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if name == "" {
		return nil, &model.ConfigurationError{Field: "name", Message: "agent name must not be empty"}
	}
	if modelID == "" {
		return nil, &model.ConfigurationError{Field: "model_id", Message: "model ID must not be empty"}
	}
	if opts.Temperature != nil && (*opts.Temperature < 0 || *opts.Temperature > 1) {
		return nil, &model.ConfigurationError{
			Field:   "temperature",
			Message: fmt.Sprintf("must be between 0.0 and 1.0, got %g", *opts.Temperature),
		}
	}
	if opts.Temperature == nil {
		temperature := DefaultTemperature
		opts.Temperature = &temperature
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Agent %s", name)
	}

	a := &Agent{
		name:               name,
		description:        opts.Description,
		modelID:            modelID,
		instruction:        opts.Instruction,
		temperature:        opts.Temperature,
		maxTokens:          opts.MaxTokens,
		inlineToolProtocol: opts.InlineToolProtocol,
		tools:              tool.NewRegistry(),
		logger:             opts.Logger,
	}

	for _, t := range opts.Tools {
		if err := a.RegisterTool(t); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.name }

// Description returns the human-readable description.
func (a *Agent) Description() string { return a.description }

// ModelID returns the configured model identifier.
func (a *Agent) ModelID() string { return a.modelID }

// Temperature returns the sampling temperature.
func (a *Agent) Temperature() *float64 { return a.temperature }

// MaxTokens returns the configured response cap; zero means family
// default.
func (a *Agent) MaxTokens() int { return a.maxTokens }

// InlineToolProtocol reports whether tools travel inside the system
// prompt instead of the provider's native tool API.
func (a *Agent) InlineToolProtocol() bool { return a.inlineToolProtocol }

// Logger returns the agent's logger.
func (a *Agent) Logger() logging.Logger { return a.logger }

// RegisterTool adds a tool to the agent's capability set.
func (a *Agent) RegisterTool(t tool.Tool) error {
	return a.tools.Register(t)
}

// Tools returns the agent's tool registry.
func (a *Agent) Tools() *tool.Registry { return a.tools }

// SystemPrompt resolves the instruction (rendering {{.key}} markers
// against the given metadata) and, when the inline protocol is active and
// tools are registered, appends the tool protocol block.
func (a *Agent) SystemPrompt(ctx context.Context, meta map[string]any) (string, error) {
	instruction, err := a.instruction.Resolve(ctx, meta)
	if err != nil {
		return "", fmt.Errorf("resolve instructions for agent %s: %w", a.name, err)
	}

	rendered, err := util.RenderTemplate(instruction, meta)
	if err != nil {
		return "", fmt.Errorf("render instructions for agent %s: %w", a.name, err)
	}

	if a.inlineToolProtocol && a.tools.Len() > 0 {
		return rendered + "\n\n" + buildToolProtocol(a.tools.Definitions()), nil
	}
	return rendered, nil
}
