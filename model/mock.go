package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentswarm/core"
)

// MockStrategy is a lightweight in-memory Strategy for tests and
// examples. Outcomes are scripted per call in FIFO order and invocations
// are counted, so retry and budget behavior can be asserted precisely.
type MockStrategy struct {
	family string

	mu       sync.Mutex
	limits   Limits
	outcomes []mockOutcome
	invoked  int
	requests []Request
}

type mockOutcome struct {
	resp Response
	err  error
}

// NewMockStrategy constructs a mock with a 4096-token ceiling for every
// model ID.
func NewMockStrategy(family string) *MockStrategy {
	return &MockStrategy{family: family, limits: Limits{MaxTokens: 4096}}
}

// SetLimits overrides the ceiling reported for all model IDs.
func (m *MockStrategy) SetLimits(l Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.limits = l
}

// EnqueueMessage scripts a plain text response. Text shaped like inline
// tool-protocol JSON exercises the gateway normalizer.
func (m *MockStrategy) EnqueueMessage(content string) {
	m.enqueue(mockOutcome{resp: Response{Type: ResponseTypeMessage, Content: content}})
}

// EnqueueToolCall scripts a structured tool_call response.
func (m *MockStrategy) EnqueueToolCall(calls ...core.ToolCall) {
	m.enqueue(mockOutcome{resp: Response{Type: ResponseTypeToolCall, ToolCalls: calls}})
}

// EnqueueError scripts a failing invocation.
func (m *MockStrategy) EnqueueError(err error) {
	m.enqueue(mockOutcome{err: err})
}

func (m *MockStrategy) enqueue(o mockOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes = append(m.outcomes, o)
}

// Invocations returns how many times Invoke ran.
func (m *MockStrategy) Invocations() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.invoked
}

// Requests returns every request that reached FormatRequest.
func (m *MockStrategy) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Request(nil), m.requests...)
}

// LastRequest returns the most recent request, if any.
func (m *MockStrategy) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.requests) == 0 {
		return Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// FamilyID implements Strategy.
func (m *MockStrategy) FamilyID() string { return m.family }

// Limits implements Strategy; every model ID is known to the mock.
func (m *MockStrategy) Limits(string) (Limits, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.limits, true
}

// FormatRequest implements Strategy.
func (m *MockStrategy) FormatRequest(req *Request) (*ProviderRequest, error) {
	limits, _ := m.Limits(req.ModelID)
	if err := ValidateParams(req, limits); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.mu.Unlock()

	return &ProviderRequest{ModelID: req.ModelID, Payload: *req}, nil
}

// Invoke implements Strategy, consuming the next scripted outcome. An
// empty script yields a generic message.
func (m *MockStrategy) Invoke(_ context.Context, preq *ProviderRequest) (*ProviderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invoked++
	if len(m.outcomes) == 0 {
		req, _ := preq.Payload.(Request)
		return &ProviderResponse{
			Payload: Response{Type: ResponseTypeMessage, Content: fmt.Sprintf("mock response to: %s", req.Input)},
		}, nil
	}

	next := m.outcomes[0]
	m.outcomes = m.outcomes[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &ProviderResponse{Payload: next.resp}, nil
}

// ParseResponse implements Strategy.
func (m *MockStrategy) ParseResponse(presp *ProviderResponse) (*Response, error) {
	resp, ok := presp.Payload.(Response)
	if !ok {
		return nil, &ResponseParsingError{Message: fmt.Sprintf("unexpected payload type %T", presp.Payload)}
	}
	out := resp
	return &out, nil
}
