package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/agentswarm/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func newTestGateway(t *testing.T, strategy Strategy, prefixes ...string) (*Gateway, *[]time.Duration) {
	t.Helper()

	delays := &[]time.Duration{}
	gw := NewGateway(func(o *GatewayOptions) {
		o.Sleep = func(_ context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		}
	})
	for _, p := range prefixes {
		require.NoError(t, gw.Registry().Register(p, strategy))
	}
	return gw, delays
}

func TestGateway_ThrottledTwiceThenSucceeds(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueError(fmt.Errorf("%w: 429", ErrThrottled))
	mock.EnqueueError(fmt.Errorf("%w: 429", ErrThrottled))
	mock.EnqueueMessage("recovered")

	gw, delays := newTestGateway(t, mock, "mock-")

	resp, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ResponseTypeMessage, resp.Type)
	assert.Equal(t, "recovered", resp.Content)

	// Exactly three provider calls and doubling delays between them.
	assert.Equal(t, 3, mock.Invocations())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestGateway_ThrottleBudgetExhausted(t *testing.T) {
	mock := NewMockStrategy("mock")
	for i := 0; i < 5; i++ {
		mock.EnqueueError(fmt.Errorf("%w: 429", ErrThrottled))
	}

	gw, delays := newTestGateway(t, mock, "mock-")

	_, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.Error(t, err)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, 5, invErr.Attempts)
	assert.True(t, errors.Is(err, ErrThrottled))
	assert.Equal(t, 5, mock.Invocations())
	// Four backoffs happen between five attempts.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, *delays)
}

func TestGateway_NonThrottleErrorFailsImmediately(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueError(errors.New("model not ready"))

	gw, delays := newTestGateway(t, mock, "mock-")

	_, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.Error(t, err)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, 1, invErr.Attempts)
	assert.Equal(t, 1, mock.Invocations())
	assert.Empty(t, *delays)
}

func TestGateway_MaxTokensCeilingRejectedBeforeAnyCall(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.SetLimits(Limits{MaxTokens: 2048})

	gw, _ := newTestGateway(t, mock, "mock-")

	_, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi", MaxTokens: 4096})
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "max_tokens", cfgErr.Field)
	assert.Equal(t, 0, mock.Invocations())
}

func TestGateway_TemperatureValidation(t *testing.T) {
	mock := NewMockStrategy("mock")
	gw, _ := newTestGateway(t, mock, "mock-")

	for _, bad := range []float64{-0.1, 1.1, 2.0} {
		_, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi", Temperature: floatPtr(bad)})
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr, "temperature %v", bad)
		assert.Equal(t, "temperature", cfgErr.Field)
	}
	assert.Equal(t, 0, mock.Invocations())

	// Boundary values pass.
	for _, good := range []float64{0, 1} {
		_, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi", Temperature: floatPtr(good)})
		require.NoError(t, err, "temperature %v", good)
	}
}

func TestGateway_UnknownModelIsConfigurationError(t *testing.T) {
	mock := NewMockStrategy("mock")
	gw, _ := newTestGateway(t, mock, "mock-")

	_, err := gw.Invoke(context.Background(), &Request{ModelID: "other-model", Input: "hi"})
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "model_id", cfgErr.Field)
	assert.Equal(t, 0, mock.Invocations())
}

func TestGateway_NormalizesInlineMessageEnvelope(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueMessage(`{"type": "message", "content": "decoded answer"}`)

	gw, _ := newTestGateway(t, mock, "mock-")

	resp, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ResponseTypeMessage, resp.Type)
	assert.Equal(t, "decoded answer", resp.Content)
}

func TestGateway_NormalizesInlineToolCallEnvelope(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueMessage(`{
		"type": "tool_call",
		"tool_calls": [
			{"id": "call_1", "type": "function", "function": {"name": "calculator", "arguments": "{\"expression\": \"2+2\"}"}}
		]
	}`)

	gw, _ := newTestGateway(t, mock, "mock-")

	resp, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.NoError(t, err)
	require.Equal(t, ResponseTypeToolCall, resp.Type)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "calculator", resp.ToolCalls[0].Function.Name)

	args, err := resp.ToolCalls[0].ArgumentsMap()
	require.NoError(t, err)
	assert.Equal(t, "2+2", args["expression"])
}

func TestGateway_InlineToolCallEnvelopeAssignsMissingIDs(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueMessage(`{"type": "tool_call", "tool_calls": [{"function": {"name": "current_time", "arguments": "{}"}}]}`)

	gw, _ := newTestGateway(t, mock, "mock-")

	resp, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.NotEmpty(t, resp.ToolCalls[0].ID)
	assert.Equal(t, core.ToolCallTypeFunction, resp.ToolCalls[0].Type)
}

func TestGateway_MalformedToolCallEnvelope(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueMessage(`{"type": "tool_call", "tool_calls": "not-an-array"}`)

	gw, _ := newTestGateway(t, mock, "mock-")

	_, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.Error(t, err)

	var parseErr *ResponseParsingError
	assert.ErrorAs(t, err, &parseErr)
}

func TestGateway_EmptyToolCallEnvelope(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueMessage(`{"type": "tool_call", "tool_calls": []}`)

	gw, _ := newTestGateway(t, mock, "mock-")

	_, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.Error(t, err)

	var parseErr *ResponseParsingError
	assert.ErrorAs(t, err, &parseErr)
}

func TestGateway_PlainTextPassesThrough(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "prose", content: "The answer is 4.", want: "The answer is 4."},
		{name: "whitespace trimmed", content: "  padded  ", want: "padded"},
		{name: "invalid json braces", content: `{"type": "message", "content": `, want: `{"type": "message", "content":`},
		{name: "json without recognized type", content: `{"result": 42}`, want: `{"result": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockStrategy("mock")
			mock.EnqueueMessage(tt.content)

			gw, _ := newTestGateway(t, mock, "mock-")

			resp, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
			require.NoError(t, err)
			assert.Equal(t, ResponseTypeMessage, resp.Type)
			assert.Equal(t, tt.want, resp.Content)
		})
	}
}

func TestGateway_NativeToolCallSkipsNormalization(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueToolCall(core.NewToolCall("calculator", `{"expression": "1+1"}`))

	gw, _ := newTestGateway(t, mock, "mock-")

	resp, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ResponseTypeToolCall, resp.Type)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "calculator", resp.ToolCalls[0].Function.Name)
}

func TestGateway_SleepCancellation(t *testing.T) {
	mock := NewMockStrategy("mock")
	mock.EnqueueError(fmt.Errorf("%w: 429", ErrThrottled))

	gw := NewGateway(func(o *GatewayOptions) {
		o.Sleep = func(ctx context.Context, _ time.Duration) error {
			return context.Canceled
		}
	})
	require.NoError(t, gw.Registry().Register("mock-", mock))

	_, err := gw.Invoke(context.Background(), &Request{ModelID: "mock-model", Input: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, mock.Invocations())
}
