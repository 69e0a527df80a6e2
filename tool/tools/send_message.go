package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentswarm/tool"
)

// SendMessageToolName is the registered name of the messaging built-in.
// Agencies deregister and re-register under this name whenever the
// recipient list changes.
const SendMessageToolName = "send_message"

// Messenger routes a message to another agent and returns its reply. The
// agency implements this by processing the message on the recipient's own
// thread; tools only ever see the capability, never the orchestration.
type Messenger interface {
	SendMessage(ctx context.Context, recipient, message string) (string, error)
}

// sendMessageTool lets one agent address another by name.
type sendMessageTool struct {
	messenger  Messenger
	recipients []string
}

// NewSendMessageTool constructs the messaging built-in with a closed
// recipient list. The list is baked into the tool's schema so the model
// knows exactly who can be addressed.
func NewSendMessageTool(messenger Messenger, recipients []string) tool.Tool {
	return &sendMessageTool{messenger: messenger, recipients: recipients}
}

func (t *sendMessageTool) Name() string { return SendMessageToolName }

func (t *sendMessageTool) Description() string {
	return fmt.Sprintf(
		"Sends a message to another agent and returns that agent's reply. Valid recipients: %s",
		strings.Join(t.recipients, ", "),
	)
}

func (t *sendMessageTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipient": map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("Name of the agent to message. One of: %s", strings.Join(t.recipients, ", ")),
				"enum":        t.recipients,
			},
			"message": map[string]any{
				"type":        "string",
				"description": "The message to deliver",
			},
		},
		"required": []string{"recipient", "message"},
	}
}

func (t *sendMessageTool) Call(tc *tool.Context, args map[string]any) (string, error) {
	recipient, _ := args["recipient"].(string)
	message, _ := args["message"].(string)

	if recipient == "" {
		return "", tool.NewError(t.Name(), "missing required field 'recipient'", tool.CodeValidationError)
	}
	if message == "" {
		return "", tool.NewError(t.Name(), "missing required field 'message'", tool.CodeValidationError)
	}
	if !t.validRecipient(recipient) {
		return "", tool.NewError(
			t.Name(),
			fmt.Sprintf("unknown recipient %q, valid recipients: %s", recipient, strings.Join(t.recipients, ", ")),
			tool.CodeValidationError,
		)
	}

	tc.Logger.Info("routing message", "from", tc.Agent, "to", recipient)

	reply, err := t.messenger.SendMessage(tc, recipient, message)
	if err != nil {
		return "", tool.NewError(t.Name(), err.Error(), tool.CodeExecutionError)
	}
	return reply, nil
}

func (t *sendMessageTool) validRecipient(name string) bool {
	for _, r := range t.recipients {
		if r == name {
			return true
		}
	}
	return false
}
