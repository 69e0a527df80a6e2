package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agentswarm/model"
)

// buildToolProtocol renders the prompt block that teaches a model without
// native tool support how to call tools: the available tools with their
// parameters, then the strict response format. Responses following this
// protocol are decoded by the model gateway's normalizer.
func buildToolProtocol(defs []model.ToolDefinition) string {
	var b strings.Builder

	b.WriteString("You have access to the following tools:\n")

	for _, def := range defs {
		fmt.Fprintf(&b, "\n%s: %s\n", def.Name, def.Description)
		b.WriteString("Parameters:\n")

		properties, _ := def.Parameters["properties"].(map[string]any)
		required := requiredSet(def.Parameters["required"])

		names := make([]string, 0, len(properties))
		for name := range properties {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			info, _ := properties[name].(map[string]any)
			description, _ := info["description"].(string)
			marker := "(optional)"
			if required[name] {
				marker = "(required)"
			}
			fmt.Fprintf(&b, "- %s: %s %s\n", name, description, marker)
		}
	}

	b.WriteString("\nCRITICAL INSTRUCTIONS:\n")
	b.WriteString("1. To use a tool, your ENTIRE response must be ONLY the JSON:\n")
	b.WriteString(`   {"type": "tool_call", "tool_calls": [{"id": "call_xxx", "type": "function", "function": {"name": "tool_name", "arguments": "{...}"}}]}`)
	b.WriteString("\n\n")
	b.WriteString("2. For a normal response without tools, respond with:\n")
	b.WriteString(`   {"type": "message", "content": "your response here"}`)
	b.WriteString("\n\n")
	b.WriteString("3. Do not include ANY other text before or after the JSON.")

	return b.String()
}

func requiredSet(v any) map[string]bool {
	set := make(map[string]bool)
	switch required := v.(type) {
	case []string:
		for _, name := range required {
			set[name] = true
		}
	case []any:
		for _, item := range required {
			if name, ok := item.(string); ok {
				set[name] = true
			}
		}
	}
	return set
}
