// Package openai provides the model strategy for the OpenAI Chat
// Completions API. It adapts AgentSwarm's normalized Request/Response
// structures into the SDK's message format and back.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hupe1980/agentswarm/core"
	"github.com/hupe1980/agentswarm/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultMaxTokens is applied when a request leaves max_tokens unset,
// clamped to the variant's ceiling.
const DefaultMaxTokens = 4096

// Known OpenAI variants and their completion-token ceilings. Lookup
// matches the longest prefix so dated releases (gpt-4o-2024-08-06)
// inherit their base variant's limits.
var modelLimits = map[string]model.Limits{
	"gpt-4o-mini":       {MaxTokens: 16384},
	"gpt-4o":            {MaxTokens: 16384},
	"gpt-4-turbo":       {MaxTokens: 4096},
	"gpt-4":             {MaxTokens: 8192},
	"gpt-3.5-turbo":     {MaxTokens: 4096},
	"o1-mini":           {MaxTokens: 65536},
	"o1":                {MaxTokens: 32768},
	"o3-mini":           {MaxTokens: 65536},
	"o3":                {MaxTokens: 32768},
	"chatgpt-4o-latest": {MaxTokens: 16384},
}

// Options configures the OpenAI strategy.
type Options struct {
	APIKey string
}

// Strategy adapts the OpenAI Chat Completions API to the model gateway.
type Strategy struct {
	client *openai.Client
}

// NewStrategy creates a strategy using the official client. Without an
// explicit API key the SDK reads OPENAI_API_KEY.
func NewStrategy(optFns ...func(o *Options)) *Strategy {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Strategy{client: &client}
}

// NewStrategyFromClient creates a strategy from an existing client.
func NewStrategyFromClient(client *openai.Client) *Strategy {
	return &Strategy{client: client}
}

// FamilyID implements model.Strategy.
func (s *Strategy) FamilyID() string { return "openai" }

// Limits implements model.Strategy over the closed variant set.
func (s *Strategy) Limits(modelID string) (model.Limits, bool) {
	best := ""
	for prefix := range modelLimits {
		if strings.HasPrefix(modelID, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return model.Limits{}, false
	}
	return modelLimits[best], true
}

// FormatRequest validates parameters and assembles Chat Completions
// params without touching the network.
func (s *Strategy) FormatRequest(req *model.Request) (*model.ProviderRequest, error) {
	limits, ok := s.Limits(req.ModelID)
	if !ok {
		return nil, &model.ConfigurationError{
			Field:   "model_id",
			Message: fmt.Sprintf("unknown OpenAI model %q", req.ModelID),
		}
	}
	if err := model.ValidateParams(req, limits); err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
		if maxTokens > limits.MaxTokens {
			maxTokens = limits.MaxTokens
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               req.ModelID,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	return &model.ProviderRequest{ModelID: req.ModelID, Payload: params}, nil
}

// buildMessages converts the system prompt, normalized history and
// current input into OpenAI chat messages.
func buildMessages(req *model.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.History {
		switch msg.Role {
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Input))

	return messages
}

// buildTools converts tool definitions into OpenAI function tools.
func buildTools(defs []model.ToolDefinition) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, def := range defs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  def.Parameters,
			},
		}
	}
	return tools
}

// Invoke implements model.Strategy. Rate-limit responses wrap
// model.ErrThrottled so the gateway retries only those.
func (s *Strategy) Invoke(ctx context.Context, preq *model.ProviderRequest) (*model.ProviderResponse, error) {
	params, ok := preq.Payload.(openai.ChatCompletionNewParams)
	if !ok {
		return nil, fmt.Errorf("openai: unexpected payload type %T", preq.Payload)
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", model.ErrThrottled, err)
		}
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	return &model.ProviderResponse{
		Payload: resp,
		Usage: model.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// ParseResponse converts a chat completion into the normalized shape:
// tool calls when present, otherwise the first choice's text.
func (s *Strategy) ParseResponse(presp *model.ProviderResponse) (*model.Response, error) {
	completion, ok := presp.Payload.(*openai.ChatCompletion)
	if !ok {
		return nil, &model.ResponseParsingError{
			Message: fmt.Sprintf("openai: unexpected payload type %T", presp.Payload),
		}
	}
	if len(completion.Choices) == 0 {
		return nil, &model.ResponseParsingError{Message: "openai: no choices returned"}
	}

	choice := completion.Choices[0]
	resp := &model.Response{Usage: presp.Usage}

	if len(choice.Message.ToolCalls) > 0 {
		calls := make([]core.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			calls = append(calls, core.ToolCall{
				ID:       tc.ID,
				Type:     core.ToolCallTypeFunction,
				Function: core.FunctionCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments},
			})
		}
		resp.Type = model.ResponseTypeToolCall
		resp.ToolCalls = calls
		return resp, nil
	}

	resp.Type = model.ResponseTypeMessage
	resp.Content = choice.Message.Content
	return resp, nil
}
