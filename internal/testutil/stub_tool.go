package testutil

import (
	"sync"

	"github.com/hupe1980/agentswarm/tool"
)

// StubTool provides a fluent helper for constructing tools in tests.
// Example:
//
//	echo := testutil.NewStubTool("echo").Returns("pong")
//
// Chain only the parts you need; sensible defaults are applied. Every
// call's arguments are recorded for later assertions.
type StubTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(tc *tool.Context, args map[string]any) (string, error)

	mu    sync.Mutex
	calls []map[string]any
}

// NewStubTool creates a stub with an empty object schema that echoes its
// own name until scripted otherwise.
func NewStubTool(name string) *StubTool {
	s := &StubTool{
		name:        name,
		description: "stub tool " + name,
		parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
	s.fn = func(*tool.Context, map[string]any) (string, error) {
		return name + " ok", nil
	}
	return s
}

// WithDescription sets the model-facing description (chainable).
func (s *StubTool) WithDescription(d string) *StubTool { s.description = d; return s }

// WithParameters sets the schema (chainable).
func (s *StubTool) WithParameters(p map[string]any) *StubTool { s.parameters = p; return s }

// Returns scripts a fixed successful result (chainable).
func (s *StubTool) Returns(result string) *StubTool {
	s.fn = func(*tool.Context, map[string]any) (string, error) { return result, nil }
	return s
}

// Fails scripts a fixed failure (chainable).
func (s *StubTool) Fails(err error) *StubTool {
	s.fn = func(*tool.Context, map[string]any) (string, error) { return "", err }
	return s
}

// WithFunc replaces the implementation entirely (chainable).
func (s *StubTool) WithFunc(fn func(tc *tool.Context, args map[string]any) (string, error)) *StubTool {
	s.fn = fn
	return s
}

// Name implements tool.Tool.
func (s *StubTool) Name() string { return s.name }

// Description implements tool.Tool.
func (s *StubTool) Description() string { return s.description }

// Parameters implements tool.Tool.
func (s *StubTool) Parameters() map[string]any { return s.parameters }

// Call implements tool.Tool, recording the arguments.
func (s *StubTool) Call(tc *tool.Context, args map[string]any) (string, error) {
	s.mu.Lock()
	copied := make(map[string]any, len(args))
	for k, v := range args {
		copied[k] = v
	}
	s.calls = append(s.calls, copied)
	s.mu.Unlock()

	return s.fn(tc, args)
}

// Calls returns the recorded argument maps in call order.
func (s *StubTool) Calls() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]map[string]any(nil), s.calls...)
}

// CallCount returns how many times the tool ran.
func (s *StubTool) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}
