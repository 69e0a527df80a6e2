package model

import (
	"context"

	"github.com/hupe1980/agentswarm/core"
)

// ResponseType discriminates the two normalized response shapes.
type ResponseType string

// Normalized response types. Downstream code switches on these and
// nothing else.
const (
	ResponseTypeMessage  ResponseType = "message"
	ResponseTypeToolCall ResponseType = "tool_call"
)

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the normalized model input produced by threads. History holds
// prior conversation turns; Input is the current human message. A nil
// Temperature leaves the provider default in place.
type Request struct {
	ModelID     string
	System      string
	Input       string
	History     []core.Message
	Temperature *float64
	MaxTokens   int
	Tools       []ToolDefinition
}

// Usage captures token accounting reported by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the normalized model output: a message carries Content, a
// tool_call carries ToolCalls. No other shapes escape the gateway.
type Response struct {
	Type      ResponseType    `json:"type"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage           `json:"-"`
}

// ProviderRequest wraps a fully formatted provider payload. Payload holds
// the vendor SDK parameter struct; the gateway never inspects it.
type ProviderRequest struct {
	ModelID string
	Payload any
}

// ProviderResponse wraps a raw provider result for ParseResponse.
type ProviderResponse struct {
	Payload any
	Usage   Usage
}

// Limits describes the request ceilings of one known model variant.
type Limits struct {
	MaxTokens int
}

// Strategy adapts one provider family to the gateway. FormatRequest
// validates parameters and builds the vendor payload without touching the
// network; Invoke is the single countable provider call; ParseResponse is
// pure.
type Strategy interface {
	// FamilyID names the provider family, e.g. "anthropic".
	FamilyID() string

	// Limits resolves the ceilings of a model variant. The variant set is
	// closed: unknown IDs report false and must not be silently accepted.
	Limits(modelID string) (Limits, bool)

	FormatRequest(req *Request) (*ProviderRequest, error)
	Invoke(ctx context.Context, preq *ProviderRequest) (*ProviderResponse, error)
	ParseResponse(presp *ProviderResponse) (*Response, error)
}

// ValidateParams rejects parameters the provider would refuse, before any
// network call. Temperature must lie in [0, 1]; MaxTokens must not exceed
// the variant's ceiling.
func ValidateParams(req *Request, limits Limits) error {
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 1) {
		return &ConfigurationError{
			Field:   "temperature",
			Message: fmtFloatRange(*req.Temperature),
		}
	}
	if req.MaxTokens < 0 {
		return &ConfigurationError{
			Field:   "max_tokens",
			Message: "must not be negative",
		}
	}
	if limits.MaxTokens > 0 && req.MaxTokens > limits.MaxTokens {
		return &ConfigurationError{
			Field:   "max_tokens",
			Message: fmtTokenCeiling(req.MaxTokens, limits.MaxTokens, req.ModelID),
		}
	}
	return nil
}
