package model

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hupe1980/agentswarm/core"
	"github.com/hupe1980/agentswarm/logging"
	"github.com/tidwall/gjson"
)

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// Registry resolves model IDs to strategies. Defaults to an empty
	// registry; callers register strategies on Gateway.Registry().
	Registry *Registry

	// MaxAttempts bounds throttle retries, counting the first call.
	MaxAttempts int

	// InitialDelay is the backoff before the first retry; it doubles on
	// every further throttle.
	InitialDelay time.Duration

	Logger logging.Logger

	// Sleep is the backoff wait. Tests inject a recording stub here so
	// retry behavior is observable without real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Gateway is the single entry point for model invocations. It resolves a
// strategy, validates parameters before any network traffic, retries
// throttle failures with doubling delays, and normalizes every result
// into a message or tool_call response.
type Gateway struct {
	registry     *Registry
	maxAttempts  int
	initialDelay time.Duration
	logger       logging.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a gateway.
func NewGateway(optFns ...func(o *GatewayOptions)) *Gateway {
	opts := GatewayOptions{
		Registry:     NewRegistry(),
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepWithContext
	}

	return &Gateway{
		registry:     opts.Registry,
		maxAttempts:  opts.MaxAttempts,
		initialDelay: opts.InitialDelay,
		logger:       opts.Logger,
		sleep:        opts.Sleep,
	}
}

// Registry returns the gateway's strategy registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Invoke runs one normalized model call. Configuration errors (unknown
// model, invalid temperature or max_tokens) surface before any provider
// call; only throttle errors retry.
func (g *Gateway) Invoke(ctx context.Context, req *Request) (*Response, error) {
	strategy, err := g.registry.Resolve(req.ModelID)
	if err != nil {
		return nil, err
	}

	preq, err := strategy.FormatRequest(req)
	if err != nil {
		return nil, err
	}

	presp, err := g.invokeWithRetry(ctx, strategy, req.ModelID, preq)
	if err != nil {
		return nil, err
	}

	resp, err := strategy.ParseResponse(presp)
	if err != nil {
		return nil, err
	}

	return normalize(resp)
}

func (g *Gateway) invokeWithRetry(ctx context.Context, strategy Strategy, modelID string, preq *ProviderRequest) (*ProviderResponse, error) {
	delay := g.initialDelay

	for attempt := 1; ; attempt++ {
		g.logger.Debug("invoking model", "model_id", modelID, "attempt", attempt)

		presp, err := strategy.Invoke(ctx, preq)
		if err == nil {
			return presp, nil
		}
		if !errors.Is(err, ErrThrottled) || attempt >= g.maxAttempts {
			return nil, &InvocationError{ModelID: modelID, Attempts: attempt, Err: err}
		}

		g.logger.Warn("model throttled, backing off",
			"model_id", modelID, "attempt", attempt, "delay", delay.String())
		if sleepErr := g.sleep(ctx, delay); sleepErr != nil {
			return nil, &InvocationError{ModelID: modelID, Attempts: attempt, Err: sleepErr}
		}
		delay *= 2
	}
}

// normalize folds inline tool-protocol JSON into the structured response
// shape. Message content that is a valid JSON object declaring a known
// "type" is decoded; any other text passes through verbatim as a message.
// A declared tool_call envelope that cannot be decoded is a parsing error
// rather than a silent message.
func normalize(resp *Response) (*Response, error) {
	if resp.Type == ResponseTypeToolCall {
		return resp, nil
	}

	content := strings.TrimSpace(resp.Content)
	resp.Content = content
	resp.Type = ResponseTypeMessage

	if !strings.HasPrefix(content, "{") || !strings.HasSuffix(content, "}") || !gjson.Valid(content) {
		return resp, nil
	}

	switch gjson.Get(content, "type").String() {
	case string(ResponseTypeMessage):
		resp.Content = gjson.Get(content, "content").String()
		return resp, nil

	case string(ResponseTypeToolCall):
		var envelope struct {
			ToolCalls []core.ToolCall `json:"tool_calls"`
		}
		if err := json.Unmarshal([]byte(content), &envelope); err != nil {
			return nil, &ResponseParsingError{Message: "malformed tool_call envelope", Err: err}
		}
		if len(envelope.ToolCalls) == 0 {
			return nil, &ResponseParsingError{Message: "tool_call envelope without tool_calls"}
		}
		for i := range envelope.ToolCalls {
			if envelope.ToolCalls[i].ID == "" {
				envelope.ToolCalls[i].ID = core.NewID()
			}
			if envelope.ToolCalls[i].Type == "" {
				envelope.ToolCalls[i].Type = core.ToolCallTypeFunction
			}
		}
		resp.Type = ResponseTypeToolCall
		resp.ToolCalls = envelope.ToolCalls
		resp.Content = ""
		return resp, nil

	default:
		// JSON without a recognized type is ordinary prose.
		return resp, nil
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
