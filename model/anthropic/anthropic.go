// Package anthropic provides the model strategy for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/agentswarm/core"
	"github.com/hupe1980/agentswarm/model"
)

// DefaultMaxTokens is applied when a request leaves max_tokens unset,
// clamped to the variant's ceiling.
const DefaultMaxTokens = 4096

// Known Claude variants and their max_tokens ceilings. Lookup matches the
// longest prefix, so dated releases (claude-3-5-sonnet-20241022) inherit
// their base variant's limits. Anything outside this set is rejected
// before a request is built.
var modelLimits = map[string]model.Limits{
	"claude-3-5-sonnet": {MaxTokens: 8192},
	"claude-3-5-haiku":  {MaxTokens: 8192},
	"claude-3-opus":     {MaxTokens: 4096},
	"claude-3-sonnet":   {MaxTokens: 4096},
	"claude-3-haiku":    {MaxTokens: 4096},
}

// Options configures the Anthropic strategy.
type Options struct {
	APIKey string
}

// Strategy adapts the Anthropic Messages API to the model gateway.
type Strategy struct {
	client *anthropic.Client
}

// NewStrategy creates a strategy using the official client. Without an
// explicit API key the SDK reads ANTHROPIC_API_KEY.
func NewStrategy(optFns ...func(o *Options)) *Strategy {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Strategy{client: &client}
}

// NewStrategyFromClient creates a strategy from an existing client.
func NewStrategyFromClient(client *anthropic.Client) *Strategy {
	return &Strategy{client: client}
}

// FamilyID implements model.Strategy.
func (s *Strategy) FamilyID() string { return "anthropic" }

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

// FormatRequest validates parameters and assembles Messages API params
// without touching the network.
func (s *Strategy) FormatRequest(req *model.Request) (*model.ProviderRequest, error) {
	limits, ok := s.Limits(req.ModelID)
	if !ok {
		return nil, &model.ConfigurationError{
			Field:   "model_id",
			Message: fmt.Sprintf("unknown Anthropic model %q", req.ModelID),
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

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.ModelID),
		Messages:  buildMessages(req),
		MaxTokens: int64(maxTokens),
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	return &model.ProviderRequest{ModelID: req.ModelID, Payload: params}, nil
}

// buildMessages converts normalized history plus the current input into
// Anthropic message params. System entries travel via params.System, not
// the message list.
func buildMessages(req *model.Request) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)

	for _, msg := range req.History {
		switch msg.Role {
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case core.RoleSystem:
			continue
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)))
	return messages
}

// buildTools converts tool definitions to the Anthropic tool format.
func buildTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))

	for i, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if def.Parameters != nil {
			if properties, ok := def.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredStrings(def.Parameters["required"])
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Name)
	}

	return tools
}

func requiredStrings(v any) []string {
	switch required := v.(type) {
	case []string:
		return required
	case []any:
		out := make([]string, 0, len(required))
		for _, r := range required {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Invoke implements model.Strategy. Rate-limit responses wrap
// model.ErrThrottled so the gateway retries only those.
func (s *Strategy) Invoke(ctx context.Context, preq *model.ProviderRequest) (*model.ProviderResponse, error) {
	params, ok := preq.Payload.(anthropic.MessageNewParams)
	if !ok {
		return nil, fmt.Errorf("anthropic: unexpected payload type %T", preq.Payload)
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", model.ErrThrottled, err)
		}
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	return &model.ProviderResponse{
		Payload: resp,
		Usage: model.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// ParseResponse converts an Anthropic message into the normalized shape:
// tool_use blocks become tool calls, otherwise the text blocks join into
// a message.
func (s *Strategy) ParseResponse(presp *model.ProviderResponse) (*model.Response, error) {
	msg, ok := presp.Payload.(*anthropic.Message)
	if !ok {
		return nil, &model.ResponseParsingError{
			Message: fmt.Sprintf("anthropic: unexpected payload type %T", presp.Payload),
		}
	}

	var text strings.Builder
	var calls []core.ToolCall

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if encoded, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(encoded)
				}
			}
			calls = append(calls, core.ToolCall{
				ID:       toolBlock.ID,
				Type:     core.ToolCallTypeFunction,
				Function: core.FunctionCall{Name: toolBlock.Name, Arguments: args},
			})
		}
	}

	resp := &model.Response{Usage: presp.Usage}
	if len(calls) > 0 {
		resp.Type = model.ResponseTypeToolCall
		resp.ToolCalls = calls
		return resp, nil
	}

	resp.Type = model.ResponseTypeMessage
	resp.Content = text.String()
	return resp, nil
}
