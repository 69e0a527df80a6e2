package thread

import (
	"sync"

	"github.com/hupe1980/agentswarm/agent"
	"github.com/hupe1980/agentswarm/core"
	"github.com/hupe1980/agentswarm/logging"
	"github.com/hupe1980/agentswarm/memory"
	"github.com/hupe1980/agentswarm/model"
	"github.com/hupe1980/agentswarm/tool"
	"github.com/hupe1980/agentswarm/trace"
)

// DefaultMaxModelCalls bounds model invocations per run.
const DefaultMaxModelCalls = 10

// Options configures a Thread.
type Options struct {
	Gateway *model.Gateway

	// Trace receives the thread's events. Defaults to a private trace;
	// agencies hand every thread the shared one.
	Trace *trace.Trace

	// Memory holds the conversation history. Defaults to a fresh buffer.
	Memory memory.Conversation

	Logger logging.Logger

	// MaxModelCalls caps model invocations per run. Zero or negative
	// means DefaultMaxModelCalls.
	MaxModelCalls int

	// Metadata is exposed to instruction templates and kept on the
	// thread.
	Metadata map[string]any

	// SharedState is handed to tools during dispatch.
	SharedState *memory.SharedState
}

// WithGateway sets the model gateway.
func WithGateway(gw *model.Gateway) func(o *Options) {
	return func(o *Options) {
		o.Gateway = gw
	}
}

// WithTrace sets the trace events are recorded on.
func WithTrace(tr *trace.Trace) func(o *Options) {
	return func(o *Options) {
		o.Trace = tr
	}
}

// WithMemory sets the conversation history store.
func WithMemory(mem memory.Conversation) func(o *Options) {
	return func(o *Options) {
		o.Memory = mem
	}
}

// WithLogger sets the thread's logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMaxModelCalls caps model invocations per run.
func WithMaxModelCalls(n int) func(o *Options) {
	return func(o *Options) {
		o.MaxModelCalls = n
	}
}

// WithMetadata attaches metadata to the thread.
func WithMetadata(metadata map[string]any) func(o *Options) {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithSharedState sets the state tools see during dispatch.
func WithSharedState(state *memory.SharedState) func(o *Options) {
	return func(o *Options) {
		o.SharedState = state
	}
}

// Thread binds one agent to one conversation. Threads are safe for
// concurrent use, though runs on the same thread execute independently
// and interleave their histories.
type Thread struct {
	id         string
	agent      *agent.Agent
	gateway    *model.Gateway
	tr         *trace.Trace
	mem        memory.Conversation
	logger     logging.Logger
	maxCalls   int
	metadata   map[string]any
	dispatcher *tool.Dispatcher

	mu      sync.RWMutex
	runs    map[string]*core.Run
	order   []string
	current *core.Run
}

// New creates a thread for the agent. A nil gateway is tolerated here and
// rejected on Process, so threads can be assembled before wiring.
func New(a *agent.Agent, optFns ...func(o *Options)) *Thread {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		MaxModelCalls: DefaultMaxModelCalls,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Trace == nil {
		opts.Trace = trace.New()
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewBuffer()
	}
	if opts.MaxModelCalls <= 0 {
		opts.MaxModelCalls = DefaultMaxModelCalls
	}
	if opts.SharedState == nil {
		opts.SharedState = memory.NewSharedState()
	}

	metadata := make(map[string]any, len(opts.Metadata))
	for k, v := range opts.Metadata {
		metadata[k] = v
	}

	t := &Thread{
		id:       core.NewID(),
		agent:    a,
		gateway:  opts.Gateway,
		tr:       opts.Trace,
		mem:      opts.Memory,
		logger:   opts.Logger,
		maxCalls: opts.MaxModelCalls,
		metadata: metadata,
		runs:     make(map[string]*core.Run),
	}
	if a != nil {
		t.dispatcher = tool.NewDispatcher(a.Tools(),
			tool.WithLogger(opts.Logger),
			tool.WithState(opts.SharedState),
		)
	}
	return t
}

// ID returns the thread's unique identifier.
func (t *Thread) ID() string { return t.id }

// Agent returns the bound agent.
func (t *Thread) Agent() *agent.Agent { return t.agent }

// Memory returns the conversation history store.
func (t *Thread) Memory() memory.Conversation { return t.mem }

// Trace returns the trace this thread records on.
func (t *Thread) Trace() *trace.Trace { return t.tr }

// Metadata returns a copy of the thread metadata.
func (t *Thread) Metadata() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]any, len(t.metadata))
	for k, v := range t.metadata {
		out[k] = v
	}
	return out
}

// Runs returns every run in creation order.
func (t *Thread) Runs() []*core.Run {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*core.Run, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.runs[id])
	}
	return out
}

// Run returns the run with the given ID.
func (t *Thread) Run(id string) (*core.Run, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[id]
	return run, ok
}

// CurrentRun returns the most recently created run, if any.
func (t *Thread) CurrentRun() *core.Run {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.current
}

// CancelRun cancels the run with the given ID. It reports true exactly
// when the run existed and was still cancellable; terminal runs are left
// untouched.
func (t *Thread) CancelRun(id string) bool {
	run, ok := t.Run(id)
	if !ok {
		return false
	}
	return run.Cancel()
}

func (t *Thread) addRun(run *core.Run) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.runs[run.ID] = run
	t.order = append(t.order, run.ID)
	t.current = run
}
