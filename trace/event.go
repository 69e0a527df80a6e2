package trace

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// EventType classifies trace events.
type EventType string

// Event types emitted by the orchestration layers.
const (
	EventAgentStart      EventType = "agent_start"
	EventAgentComplete   EventType = "agent_complete"
	EventToolStart       EventType = "tool_start"
	EventToolComplete    EventType = "tool_complete"
	EventToolError       EventType = "tool_error"
	EventMessageSent     EventType = "message_sent"
	EventMessageReceived EventType = "message_received"
	EventError           EventType = "error"
	EventRunStart        EventType = "run_start"
	EventRunComplete     EventType = "run_complete"
)

// Event is one immutable record in the trace. ParentID links an event to
// the scope it happened inside; an empty ParentID marks a root event.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Agent     string
	RunID     string
	ThreadID  string
	ParentID  string
	Details   map[string]any
	Metadata  map[string]any
}

// Format renders the event for human inspection:
//
//	[HH:MM:SS.mmm] TYPE - Agent: name
//	  detail: value
//	  Metadata:
//	    key: value
//
// Nested detail maps are indented one extra level. Keys print in sorted
// order so output is stable.
func (e Event) Format() string {
	lines := []string{
		fmt.Sprintf("[%s] %s - Agent: %s",
			e.Timestamp.Format("15:04:05.000"),
			strings.ToUpper(string(e.Type)),
			e.Agent),
	}

	lines = appendSorted(lines, e.Details, "  ")

	if len(e.Metadata) > 0 {
		lines = append(lines, "  Metadata:")
		lines = appendSorted(lines, e.Metadata, "    ")
	}

	return strings.Join(lines, "\n")
}

func appendSorted(lines []string, m map[string]any, indent string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if nested, ok := m[k].(map[string]any); ok {
			lines = append(lines, fmt.Sprintf("%s%s:", indent, k))
			lines = appendSorted(lines, nested, indent+"  ")
			continue
		}
		lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, m[k]))
	}
	return lines
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func (e Event) clone() Event {
	e.Details = cloneMap(e.Details)
	e.Metadata = cloneMap(e.Metadata)
	return e
}
