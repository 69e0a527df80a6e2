// Package agency is the composition root: it owns the agents, threads,
// workflows, shared memory and trace of one multi-agent system, wires a
// default model gateway, and routes messages between agents.
package agency

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agentswarm/agent"
	"github.com/hupe1980/agentswarm/core"
	"github.com/hupe1980/agentswarm/logging"
	"github.com/hupe1980/agentswarm/memory"
	"github.com/hupe1980/agentswarm/model"
	"github.com/hupe1980/agentswarm/model/anthropic"
	"github.com/hupe1980/agentswarm/model/openai"
	"github.com/hupe1980/agentswarm/thread"
	"github.com/hupe1980/agentswarm/tool/tools"
	"github.com/hupe1980/agentswarm/trace"
	"github.com/hupe1980/agentswarm/workflow"
)

// Options configures an Agency.
type Options struct {
	// Gateway overrides the default gateway entirely. When set, Registry
	// is ignored.
	Gateway *model.Gateway

	// Registry seeds the default gateway with a caller-built strategy
	// registry instead of the stock Anthropic/OpenAI registrations.
	Registry *model.Registry

	// Trace receives every event of every thread. Defaults to a fresh
	// trace.
	Trace *trace.Trace

	Logger logging.Logger

	// SharedMemory is the agency-wide conversation record appended to by
	// Execute. Defaults to a fresh buffer.
	SharedMemory memory.Conversation

	// MaxModelCalls caps model invocations per run on every thread the
	// agency creates.
	MaxModelCalls int

	// Callbacks observe the Execute lifecycle in registration order.
	Callbacks []Callbacks

	// SharedInstructions are prefixed to every agent's instructions.
	SharedInstructions string
}

// WithGateway sets a caller-built model gateway.
func WithGateway(gw *model.Gateway) func(o *Options) {
	return func(o *Options) {
		o.Gateway = gw
	}
}

// WithRegistry seeds the default gateway with a custom strategy registry.
func WithRegistry(r *model.Registry) func(o *Options) {
	return func(o *Options) {
		o.Registry = r
	}
}

// WithTrace sets the shared trace.
func WithTrace(tr *trace.Trace) func(o *Options) {
	return func(o *Options) {
		o.Trace = tr
	}
}

// WithLogger sets the agency logger, inherited by agents and threads.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSharedMemory sets the agency-wide conversation record.
func WithSharedMemory(mem memory.Conversation) func(o *Options) {
	return func(o *Options) {
		o.SharedMemory = mem
	}
}

// WithMaxModelCalls caps model invocations per run across all threads.
func WithMaxModelCalls(n int) func(o *Options) {
	return func(o *Options) {
		o.MaxModelCalls = n
	}
}

// WithCallbacks appends Execute lifecycle observers.
func WithCallbacks(cbs ...Callbacks) func(o *Options) {
	return func(o *Options) {
		o.Callbacks = append(o.Callbacks, cbs...)
	}
}

// WithSharedInstructions prefixes the given text to every agent's
// instructions.
func WithSharedInstructions(instructions string) func(o *Options) {
	return func(o *Options) {
		o.SharedInstructions = instructions
	}
}

// Agency coordinates a set of agents. It is safe for concurrent use.
type Agency struct {
	gateway            *model.Gateway
	tr                 *trace.Trace
	logger             logging.Logger
	sharedMemory       memory.Conversation
	sharedState        *memory.SharedState
	maxModelCalls      int
	callbacks          []Callbacks
	sharedInstructions string

	mu               sync.RWMutex
	agents           map[string]*agent.Agent
	threads          map[string]*thread.Thread
	workflows        map[string]*workflow.Workflow
	messengerThreads map[string]*thread.Thread
}

// New creates an agency. Without WithGateway, a default gateway is built
// with the Anthropic strategy serving "claude-" model IDs and the OpenAI
// strategy serving "gpt-", "o1", "o3" and "chatgpt-" IDs.
func New(optFns ...func(o *Options)) *Agency {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		MaxModelCalls: thread.DefaultMaxModelCalls,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Trace == nil {
		opts.Trace = trace.New()
	}
	if opts.SharedMemory == nil {
		opts.SharedMemory = memory.NewBuffer()
	}
	if opts.Gateway == nil {
		opts.Gateway = defaultGateway(opts.Registry, opts.Logger)
	}

	return &Agency{
		gateway:            opts.Gateway,
		tr:                 opts.Trace,
		logger:             opts.Logger,
		sharedMemory:       opts.SharedMemory,
		sharedState:        memory.NewSharedState(),
		maxModelCalls:      opts.MaxModelCalls,
		callbacks:          opts.Callbacks,
		sharedInstructions: opts.SharedInstructions,
		agents:             make(map[string]*agent.Agent),
		threads:            make(map[string]*thread.Thread),
		workflows:          make(map[string]*workflow.Workflow),
		messengerThreads:   make(map[string]*thread.Thread),
	}
}

// DefaultRegistry returns a strategy registry with the stock provider
// registrations: Anthropic serving "claude-" model IDs and OpenAI serving
// "gpt-", "o1", "o3" and "chatgpt-" IDs.
func DefaultRegistry() *model.Registry {
	registry := model.NewRegistry()

	anthropicStrategy := anthropic.NewStrategy()
	openaiStrategy := openai.NewStrategy()

	// Fresh registry; registrations cannot collide.
	_ = registry.Register("claude-", anthropicStrategy)
	for _, prefix := range []string{"gpt-", "o1", "o3", "chatgpt-"} {
		_ = registry.Register(prefix, openaiStrategy)
	}

	return registry
}

func defaultGateway(registry *model.Registry, logger logging.Logger) *model.Gateway {
	if registry == nil {
		registry = DefaultRegistry()
	}

	return model.NewGateway(func(o *model.GatewayOptions) {
		o.Registry = registry
		o.Logger = logger
	})
}

// Gateway returns the model gateway shared by all threads.
func (a *Agency) Gateway() *model.Gateway { return a.gateway }

// Trace returns the shared event trace.
func (a *Agency) Trace() *trace.Trace { return a.tr }

// SharedMemory returns the agency-wide conversation record.
func (a *Agency) SharedMemory() memory.Conversation { return a.sharedMemory }

// State returns the shared key/value state handed to tools.
func (a *Agency) State() *memory.SharedState { return a.sharedState }

// AddAgent registers a new agent. Shared instructions are prefixed to
// the agent's own, and once two or more agents exist every agent gets a
// send_message tool listing the others as recipients.
func (a *Agency) AddAgent(name, modelID string, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.agents[name]; exists {
		return nil, &model.ConfigurationError{
			Field:   "name",
			Message: fmt.Sprintf("agent %q already registered", name),
		}
	}

	// The agency logger is a default the caller can override; the shared
	// instruction prefix wraps whatever instruction the options settle on,
	// so it must run last.
	optFns = append([]func(o *agent.Options){agent.WithLogger(a.logger)}, optFns...)
	if a.sharedInstructions != "" {
		optFns = append(optFns, prefixInstructions(a.sharedInstructions))
	}

	ag, err := agent.New(name, modelID, optFns...)
	if err != nil {
		return nil, err
	}

	a.agents[name] = ag
	a.rewireMessengersLocked()

	a.logger.Info("agent registered", "agent", name, "model_id", modelID)

	return ag, nil
}

// RemoveAgent removes an agent and reports whether it existed. Threads
// already bound to it keep working; the other agents' send_message
// recipient lists shrink accordingly.
func (a *Agency) RemoveAgent(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.agents[name]; !exists {
		return false
	}
	delete(a.agents, name)
	delete(a.messengerThreads, name)
	a.rewireMessengersLocked()

	return true
}

// Agent returns the named agent.
func (a *Agency) Agent(name string) (*agent.Agent, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ag, ok := a.agents[name]
	return ag, ok
}

// Agents returns the registered agent names in sorted order.
func (a *Agency) Agents() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.agentNamesLocked()
}

func (a *Agency) agentNamesLocked() []string {
	names := make([]string, 0, len(a.agents))
	for name := range a.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// prefixInstructions wraps the instruction the options settled on. A
// static instruction stays static; providers stay providers.
func prefixInstructions(shared string) func(o *agent.Options) {
	return func(o *agent.Options) {
		inner := o.Instruction
		if inner.IsStatic() {
			text, _ := inner.Resolve(context.Background(), nil)
			o.Instruction = agent.NewInstructionFromText(shared + "\n\n" + text)
			return
		}
		o.Instruction = agent.NewInstructionFromFunc(func(ctx context.Context, meta map[string]any) (string, error) {
			base, err := inner.Resolve(ctx, meta)
			if err != nil {
				return "", err
			}
			return shared + "\n\n" + base, nil
		})
	}
}

// rewireMessengersLocked rebuilds every agent's send_message tool so the
// recipient enum always names exactly the other registered agents. With
// fewer than two agents the tool is withdrawn.
func (a *Agency) rewireMessengersLocked() {
	names := a.agentNamesLocked()

	for name, ag := range a.agents {
		ag.Tools().Deregister(tools.SendMessageToolName)

		if len(names) < 2 {
			continue
		}
		recipients := make([]string, 0, len(names)-1)
		for _, n := range names {
			if n != name {
				recipients = append(recipients, n)
			}
		}
		if err := ag.RegisterTool(tools.NewSendMessageTool(a, recipients)); err != nil {
			a.logger.Error("send_message wiring failed", "agent", name, "error", err)
		}
	}
}

// CreateThread creates and registers a thread for the named agent. An
// empty name resolves to the sole registered agent; with zero or several
// agents the name is required.
func (a *Agency) CreateThread(agentName string) (*thread.Thread, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if agentName == "" {
		if len(a.agents) != 1 {
			return nil, &model.ConfigurationError{
				Field:   "agent",
				Message: fmt.Sprintf("agent name required when %d agents are registered", len(a.agents)),
			}
		}
		for _, ag := range a.agents {
			return a.newThreadLocked(ag), nil
		}
	}

	ag, ok := a.agents[agentName]
	if !ok {
		return nil, &model.ConfigurationError{
			Field:   "agent",
			Message: fmt.Sprintf("agent %q not found", agentName),
		}
	}
	return a.newThreadLocked(ag), nil
}

func (a *Agency) newThreadLocked(ag *agent.Agent) *thread.Thread {
	th := thread.New(ag,
		thread.WithGateway(a.gateway),
		thread.WithTrace(a.tr),
		thread.WithLogger(a.logger),
		thread.WithMaxModelCalls(a.maxModelCalls),
		thread.WithSharedState(a.sharedState),
	)
	a.threads[th.ID()] = th
	return th
}

// Thread returns the thread with the given ID.
func (a *Agency) Thread(id string) (*thread.Thread, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	th, ok := a.threads[id]
	return th, ok
}

// Run returns a run from one of the agency's threads.
func (a *Agency) Run(threadID, runID string) (*core.Run, bool) {
	th, ok := a.Thread(threadID)
	if !ok {
		return nil, false
	}
	return th.Run(runID)
}

// CancelRun cancels a run on the given thread. Unknown threads and
// terminal runs report false.
func (a *Agency) CancelRun(threadID, runID string) bool {
	th, ok := a.Thread(threadID)
	if !ok {
		return false
	}
	return th.CancelRun(runID)
}

// Execute processes a message on the given thread: it records run_start,
// mirrors the exchange into shared memory, delegates to Thread.Process
// with a recorder scoped under run_start, and records run_complete.
// Callbacks observe the call; a run that ends failed raises OnError even
// though the returned text stays readable.
func (a *Agency) Execute(ctx context.Context, threadID, message string) (string, error) {
	th, ok := a.Thread(threadID)
	if !ok {
		err := fmt.Errorf("thread %q not found", threadID)
		a.fireOnError(threadID, err)
		return "", err
	}
	agentName := th.Agent().Name()

	a.fireBeforeExecute(threadID, message)

	rec := trace.NewRecorder(a.tr, agentName, threadID)
	startID := rec.Record(trace.EventRunStart, map[string]any{"message": message}, nil)
	rec.StartScope(startID)
	defer rec.EndScope()

	a.sharedMemory.AddMessage(core.NewMessageWithMetadata(core.RoleHuman, message, map[string]any{
		"thread_id": threadID,
		"event_id":  startID,
	}))

	response, err := th.Process(ctx, message, thread.WithRecorder(rec))
	if err != nil {
		a.fireOnError(threadID, err)
		return "", err
	}

	a.sharedMemory.AddMessage(core.NewMessageWithMetadata(core.RoleAssistant, response, map[string]any{
		"thread_id": threadID,
		"agent":     agentName,
		"run_id":    rec.RunID(),
		"event_id":  startID,
	}))

	rec.Record(trace.EventRunComplete, map[string]any{"response": response}, nil)

	if run := th.CurrentRun(); run != nil && run.Status() == core.RunStatusFailed {
		a.fireOnError(threadID, run.LastError())
	} else {
		a.fireAfterExecute(threadID, response)
	}

	return response, nil
}

// SendMessage implements tools.Messenger: the message is processed on the
// recipient's dedicated inter-agent thread, created lazily and reused so
// repeated exchanges keep their history.
func (a *Agency) SendMessage(ctx context.Context, recipient, message string) (string, error) {
	a.mu.Lock()
	ag, ok := a.agents[recipient]
	if !ok {
		a.mu.Unlock()
		return "", fmt.Errorf("agent %q not found", recipient)
	}
	th, ok := a.messengerThreads[recipient]
	if !ok {
		th = a.newThreadLocked(ag)
		a.messengerThreads[recipient] = th
	}
	a.mu.Unlock()

	a.logger.Debug("inter-agent message", "recipient", recipient, "thread_id", th.ID())

	return th.Process(ctx, message)
}

// FormattedTrace renders the events of one run (or, with an empty runID,
// the whole trace) for human inspection, joined by blank lines.
func (a *Agency) FormattedTrace(runID string) string {
	var filters []trace.Filter
	if runID != "" {
		filters = append(filters, trace.WithRun(runID))
	}

	events := a.tr.Events(filters...)
	parts := make([]string, len(events))
	for i, ev := range events {
		parts[i] = ev.Format()
	}
	return strings.Join(parts, "\n\n")
}
