package core

import (
	"encoding/json"
	"fmt"
)

// ToolCallTypeFunction is the only tool call type providers emit today.
const ToolCallTypeFunction = "function"

// FunctionCall names a tool and carries its arguments. Arguments arrive
// either as a raw JSON string (native provider tool APIs and the inline
// tool protocol both produce strings) or as an already-decoded map.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

// ToolCall is a single tool invocation requested by a model response.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// NewToolCall builds a function tool call with a fresh ID.
func NewToolCall(name string, arguments any) ToolCall {
	return ToolCall{
		ID:       NewID(),
		Type:     ToolCallTypeFunction,
		Function: FunctionCall{Name: name, Arguments: arguments},
	}
}

// ArgumentsMap decodes the call's arguments into the canonical map form:
// nil means no arguments, maps pass through, strings must hold a JSON
// object. Dispatch calls this exactly once per call, so tools only ever
// see decoded maps regardless of how the provider shaped the payload.
func (tc ToolCall) ArgumentsMap() (map[string]any, error) {
	switch args := tc.Function.Arguments.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return args, nil
	case string:
		if args == "" {
			return map[string]any{}, nil
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(args), &decoded); err != nil {
			return nil, fmt.Errorf("tool call %s: decode arguments: %w", tc.ID, err)
		}
		if decoded == nil {
			decoded = map[string]any{}
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("tool call %s: unsupported arguments type %T", tc.ID, args)
	}
}

// ToolOutput is the result of executing one tool call. A dispatch batch
// returns outputs aligned 1:1, in order, with the calls that produced them.
type ToolOutput struct {
	ToolCallID string
	Output     string
	Err        error
}
