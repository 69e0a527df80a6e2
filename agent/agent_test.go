package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/agentswarm/model"
	"github.com/hupe1980/agentswarm/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	a, err := New("researcher", "claude-3-5-sonnet-20241022")
	require.NoError(t, err)

	assert.Equal(t, "researcher", a.Name())
	assert.Equal(t, "Agent researcher", a.Description())
	assert.Equal(t, "claude-3-5-sonnet-20241022", a.ModelID())
	require.NotNil(t, a.Temperature())
	assert.Equal(t, DefaultTemperature, *a.Temperature())
	assert.Equal(t, 0, a.MaxTokens())
	assert.False(t, a.InlineToolProtocol())

	prompt, err := a.SystemPrompt(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "You are researcher, a helpful assistant.", prompt)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", "claude-3-5-sonnet-20241022")
	var cfgErr *model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "name", cfgErr.Field)

	_, err = New("researcher", "")
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "model_id", cfgErr.Field)

	for _, bad := range []float64{-0.5, 1.5} {
		_, err = New("researcher", "claude-3-5-sonnet-20241022", WithTemperature(bad))
		require.ErrorAs(t, err, &cfgErr, "temperature %v", bad)
		assert.Equal(t, "temperature", cfgErr.Field)
	}

	// Boundary values construct fine.
	for _, good := range []float64{0, 1} {
		_, err := New("researcher", "claude-3-5-sonnet-20241022", WithTemperature(good))
		assert.NoError(t, err, "temperature %v", good)
	}
}

func TestNew_Options(t *testing.T) {
	a, err := New("writer", "gpt-4o",
		WithDescription("Writes prose"),
		WithInstructions("You write concise prose."),
		WithTemperature(0.2),
		WithMaxTokens(2048),
	)
	require.NoError(t, err)

	assert.Equal(t, "Writes prose", a.Description())
	assert.Equal(t, 0.2, *a.Temperature())
	assert.Equal(t, 2048, a.MaxTokens())

	prompt, err := a.SystemPrompt(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "You write concise prose.", prompt)
}

func TestSystemPrompt_TemplateRendering(t *testing.T) {
	a, err := New("support", "gpt-4o",
		WithInstructions("You support the {{.team}} team."),
	)
	require.NoError(t, err)

	prompt, err := a.SystemPrompt(context.Background(), map[string]any{"team": "platform"})
	require.NoError(t, err)
	assert.Equal(t, "You support the platform team.", prompt)
}

func TestSystemPrompt_Provider(t *testing.T) {
	a, err := New("ops", "gpt-4o",
		WithInstructionsProvider(func(_ context.Context, meta map[string]any) (string, error) {
			region, _ := meta["region"].(string)
			return "You operate in " + region + ".", nil
		}),
	)
	require.NoError(t, err)

	prompt, err := a.SystemPrompt(context.Background(), map[string]any{"region": "eu-central"})
	require.NoError(t, err)
	assert.Equal(t, "You operate in eu-central.", prompt)

	failing, err := New("ops2", "gpt-4o",
		WithInstructionsProvider(func(context.Context, map[string]any) (string, error) {
			return "", errors.New("vault unavailable")
		}),
	)
	require.NoError(t, err)

	_, err = failing.SystemPrompt(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault unavailable")
}

func TestRegisterTool(t *testing.T) {
	echo := tool.NewFunctionTool("echo", "Echoes input", func(_ *tool.Context, _ map[string]any) (string, error) {
		return "echo", nil
	})

	a, err := New("helper", "gpt-4o", WithTools(echo))
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, a.Tools().Names())

	assert.Error(t, a.RegisterTool(echo), "duplicate registration must fail")

	_, err = New("helper2", "gpt-4o", WithTools(echo, echo))
	assert.Error(t, err, "duplicate tools at construction must fail")
}

func TestSystemPrompt_InlineToolProtocol(t *testing.T) {
	search := tool.NewFunctionTool("search", "Searches the web", func(_ *tool.Context, _ map[string]any) (string, error) {
		return "", nil
	}, tool.WithParameters(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Search terms"},
			"limit": map[string]any{"type": "integer", "description": "Max results"},
		},
		"required": []string{"query"},
	}))

	a, err := New("researcher", "claude-3-5-sonnet-20241022",
		WithInstructions("You research topics."),
		WithTools(search),
		WithInlineToolProtocol(true),
	)
	require.NoError(t, err)

	prompt, err := a.SystemPrompt(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You research topics.\n\n"))
	assert.Contains(t, prompt, "You have access to the following tools:")
	assert.Contains(t, prompt, "search: Searches the web")
	assert.Contains(t, prompt, "- query: Search terms (required)")
	assert.Contains(t, prompt, "- limit: Max results (optional)")
	assert.Contains(t, prompt, "CRITICAL INSTRUCTIONS:")
	assert.Contains(t, prompt, `{"type": "tool_call", "tool_calls": [{"id": "call_xxx", "type": "function", "function": {"name": "tool_name", "arguments": "{...}"}}]}`)
	assert.Contains(t, prompt, `{"type": "message", "content": "your response here"}`)
}

func TestSystemPrompt_InlineProtocolWithoutTools(t *testing.T) {
	a, err := New("bare", "gpt-4o",
		WithInstructions("You answer directly."),
		WithInlineToolProtocol(true),
	)
	require.NoError(t, err)

	prompt, err := a.SystemPrompt(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "You answer directly.", prompt, "no tools means no protocol block")
}

func TestInstruction_Union(t *testing.T) {
	static := NewInstructionFromText("static")
	assert.True(t, static.IsStatic())

	got, err := static.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "static", got)

	dynamic := NewInstructionFromFunc(func(context.Context, map[string]any) (string, error) {
		return "dynamic", nil
	})
	assert.False(t, dynamic.IsStatic())

	got, err = dynamic.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "dynamic", got)
}
