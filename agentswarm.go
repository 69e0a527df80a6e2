// Package agentswarm provides a high-level façade over the agency
// orchestration layer (agents, threads, runs, workflows, tracing)
// enabling rapid construction of multi-agent systems. Most applications
// interact with this package by:
//  1. Creating a Swarm via New() (optionally overriding the gateway,
//     trace, shared memory or logger), or via FromConfig() from a YAML
//     definition
//  2. Registering one or more agents (AddAgent)
//  3. Conversing on threads (CreateThread + Execute, or the one-shot
//     Ask) and running workflows, discussions and broadcasts
//
// The façade delegates orchestration to agency.Agency while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// tuned gateway and a structured logger.
package agentswarm

import (
	"context"

	"github.com/hupe1980/agentswarm/agency"
	"github.com/hupe1980/agentswarm/agent"
	"github.com/hupe1980/agentswarm/config"
	"github.com/hupe1980/agentswarm/logging"
	"github.com/hupe1980/agentswarm/memory"
	"github.com/hupe1980/agentswarm/model"
	"github.com/hupe1980/agentswarm/thread"
	"github.com/hupe1980/agentswarm/trace"
	"github.com/hupe1980/agentswarm/workflow"
)

// Options configures the Swarm instance.
type Options struct {
	// Gateway overrides the default model gateway entirely. When set,
	// Registry is ignored.
	Gateway *model.Gateway

	// Registry seeds the default gateway with caller-built strategy
	// registrations instead of the stock Anthropic/OpenAI ones.
	Registry *model.Registry

	// Trace receives every event of every thread (defaults to a fresh
	// trace).
	Trace *trace.Trace

	// SharedMemory is the swarm-wide conversation record (defaults to an
	// in-memory buffer).
	SharedMemory memory.Conversation

	// MaxModelCalls caps model invocations per run on every thread.
	MaxModelCalls int

	// SharedInstructions are prefixed to every agent's instructions.
	SharedInstructions string

	// Callbacks observe the Execute lifecycle.
	Callbacks []agency.Callbacks

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Swarm is the high-level façade aggregating the agency and its
// services.
type Swarm struct {
	opts   Options
	agency *agency.Agency
}

// New creates a new Swarm instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Swarm {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	agencyOpts := []func(o *agency.Options){
		agency.WithLogger(opts.Logger),
	}
	if opts.Gateway != nil {
		agencyOpts = append(agencyOpts, agency.WithGateway(opts.Gateway))
	}
	if opts.Registry != nil {
		agencyOpts = append(agencyOpts, agency.WithRegistry(opts.Registry))
	}
	if opts.Trace != nil {
		agencyOpts = append(agencyOpts, agency.WithTrace(opts.Trace))
	}
	if opts.SharedMemory != nil {
		agencyOpts = append(agencyOpts, agency.WithSharedMemory(opts.SharedMemory))
	}
	if opts.MaxModelCalls > 0 {
		agencyOpts = append(agencyOpts, agency.WithMaxModelCalls(opts.MaxModelCalls))
	}
	if opts.SharedInstructions != "" {
		agencyOpts = append(agencyOpts, agency.WithSharedInstructions(opts.SharedInstructions))
	}
	if len(opts.Callbacks) > 0 {
		agencyOpts = append(agencyOpts, agency.WithCallbacks(opts.Callbacks...))
	}

	return &Swarm{opts: opts, agency: agency.New(agencyOpts...)}
}

// FromConfig builds a Swarm from a YAML definition file. Caller options
// are applied after the config-derived ones and may override them.
func FromConfig(path string, optFns ...func(o *agency.Options)) (*Swarm, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	a, err := config.Build(cfg, optFns...)
	if err != nil {
		return nil, err
	}

	return &Swarm{agency: a}, nil
}

// Agency exposes the underlying agency for anything the façade does not
// cover.
func (s *Swarm) Agency() *agency.Agency { return s.agency }

// AddAgent registers a new agent under the given name and model ID.
func (s *Swarm) AddAgent(name, modelID string, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	return s.agency.AddAgent(name, modelID, optFns...)
}

// CreateThread opens a conversation thread with the named agent. An
// empty name resolves to the sole agent when exactly one is registered.
func (s *Swarm) CreateThread(agentName string) (*thread.Thread, error) {
	return s.agency.CreateThread(agentName)
}

// Execute runs one message through the given thread and returns the
// agent's reply.
func (s *Swarm) Execute(ctx context.Context, threadID, message string) (string, error) {
	return s.agency.Execute(ctx, threadID, message)
}

// Ask is a one-shot helper: it opens a fresh thread with the named agent
// and executes a single message. Conversations that need history should
// use CreateThread and Execute instead.
func (s *Swarm) Ask(ctx context.Context, agentName, message string) (string, error) {
	th, err := s.agency.CreateThread(agentName)
	if err != nil {
		return "", err
	}
	return s.agency.Execute(ctx, th.ID(), message)
}

// CreateWorkflow validates and registers a workflow over the swarm's
// agents.
func (s *Swarm) CreateWorkflow(name string, steps []workflow.Step) (*workflow.Workflow, error) {
	return s.agency.CreateWorkflow(name, steps)
}

// ExecuteWorkflow runs the named workflow and returns agent name to
// output.
func (s *Swarm) ExecuteWorkflow(ctx context.Context, name, input string) (map[string]string, error) {
	return s.agency.ExecuteWorkflow(ctx, name, input)
}

// Discuss runs a round-robin discussion across all agents.
func (s *Swarm) Discuss(ctx context.Context, topic string, rounds int) ([]agency.Turn, error) {
	return s.agency.Discuss(ctx, topic, rounds)
}

// Broadcast sends the message to every agent independently.
func (s *Swarm) Broadcast(ctx context.Context, message string) (map[string]string, error) {
	return s.agency.Broadcast(ctx, message)
}

// Trace returns the shared event trace.
func (s *Swarm) Trace() *trace.Trace { return s.agency.Trace() }

// FormattedTrace renders the trace, optionally filtered to one run.
func (s *Swarm) FormattedTrace(runID string) string {
	return s.agency.FormattedTrace(runID)
}
