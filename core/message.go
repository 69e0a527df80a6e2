package core

import "time"

// Conversation roles. History rendered into prompts uses this vocabulary
// verbatim, so the constants double as prompt labels.
const (
	RoleHuman     = "human"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single conversation entry held in thread or shared memory.
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// NewMessage builds a message stamped with the current time.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// NewMessageWithMetadata builds a stamped message carrying metadata such as
// the originating thread or agent.
func NewMessageWithMetadata(role, content string, metadata map[string]any) Message {
	msg := NewMessage(role, content)
	msg.Metadata = metadata
	return msg
}
