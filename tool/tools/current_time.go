package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentswarm/tool"
)

// DefaultTimeFormat is the layout used when a call does not specify one.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// NewCurrentTimeTool returns the clock built-in. Calls may pick a Go
// reference layout (or "iso" for RFC 3339) and an IANA timezone;
// "local" and "utc" are accepted shortcuts.
func NewCurrentTimeTool() *tool.FunctionTool {
	return tool.NewFunctionTool(
		"current_time",
		"Returns the current date and time, optionally in a specific format and timezone.",
		currentTime,
		tool.WithParameters(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"format": map[string]any{
					"type":        "string",
					"description": "Go time layout (e.g. \"2006-01-02\") or \"iso\" for RFC 3339. Defaults to \"2006-01-02 15:04:05\".",
				},
				"timezone": map[string]any{
					"type":        "string",
					"description": "IANA timezone name (e.g. \"Europe/Berlin\"), \"utc\" or \"local\". Defaults to local.",
				},
			},
		}),
	)
}

func currentTime(_ *tool.Context, args map[string]any) (string, error) {
	layout := DefaultTimeFormat
	if format, _ := args["format"].(string); format != "" {
		if strings.EqualFold(format, "iso") {
			layout = time.RFC3339
		} else {
			layout = format
		}
	}

	loc := time.Local
	if tz, _ := args["timezone"].(string); tz != "" {
		switch strings.ToLower(tz) {
		case "local":
		case "utc":
			loc = time.UTC
		default:
			parsed, err := time.LoadLocation(tz)
			if err != nil {
				return "", fmt.Errorf("unknown timezone %q: %w", tz, err)
			}
			loc = parsed
		}
	}

	return time.Now().In(loc).Format(layout), nil
}
