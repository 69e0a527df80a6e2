package anthropic

import (
	"testing"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/agentswarm/core"
	"github.com/hupe1980/agentswarm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimits(t *testing.T) {
	s := NewStrategy()

	tests := []struct {
		modelID   string
		maxTokens int
		known     bool
	}{
		{modelID: "claude-3-5-sonnet-20241022", maxTokens: 8192, known: true},
		{modelID: "claude-3-5-haiku-20241022", maxTokens: 8192, known: true},
		{modelID: "claude-3-opus-20240229", maxTokens: 4096, known: true},
		{modelID: "claude-3-haiku-20240307", maxTokens: 4096, known: true},
		{modelID: "claude-2.1", known: false},
		{modelID: "gpt-4o", known: false},
	}

	for _, tt := range tests {
		limits, ok := s.Limits(tt.modelID)
		require.Equal(t, tt.known, ok, tt.modelID)
		if tt.known {
			assert.Equal(t, tt.maxTokens, limits.MaxTokens, tt.modelID)
		}
	}
}

func TestFormatRequest(t *testing.T) {
	s := NewStrategy()

	temp := 0.7
	preq, err := s.FormatRequest(&model.Request{
		ModelID:     "claude-3-5-sonnet-20241022",
		System:      "You are a researcher.",
		Input:       "What is Go?",
		Temperature: &temp,
		History: []core.Message{
			core.NewMessage(core.RoleHuman, "hello"),
			core.NewMessage(core.RoleAssistant, "hi there"),
			core.NewMessage(core.RoleSystem, "ignored in history"),
		},
	})
	require.NoError(t, err)

	params, ok := preq.Payload.(anthropicsdk.MessageNewParams)
	require.True(t, ok)
	assert.Equal(t, anthropicsdk.Model("claude-3-5-sonnet-20241022"), params.Model)
	assert.Equal(t, int64(DefaultMaxTokens), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "You are a researcher.", params.System[0].Text)
	// Two history turns plus the current input; system history is carried
	// by params.System instead.
	assert.Len(t, params.Messages, 3)
}

func TestFormatRequest_UnknownModel(t *testing.T) {
	s := NewStrategy()

	_, err := s.FormatRequest(&model.Request{ModelID: "claude-nonexistent", Input: "hi"})
	require.Error(t, err)

	var cfgErr *model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "model_id", cfgErr.Field)
}

func TestFormatRequest_MaxTokensCeiling(t *testing.T) {
	s := NewStrategy()

	_, err := s.FormatRequest(&model.Request{
		ModelID:   "claude-3-opus-20240229",
		Input:     "hi",
		MaxTokens: 8192,
	})
	require.Error(t, err)

	var cfgErr *model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "max_tokens", cfgErr.Field)

	// The same value is fine on a variant with the higher ceiling.
	_, err = s.FormatRequest(&model.Request{
		ModelID:   "claude-3-5-sonnet-20241022",
		Input:     "hi",
		MaxTokens: 8192,
	})
	assert.NoError(t, err)
}

func TestFormatRequest_Tools(t *testing.T) {
	s := NewStrategy()

	preq, err := s.FormatRequest(&model.Request{
		ModelID: "claude-3-5-haiku-20241022",
		Input:   "hi",
		Tools: []model.ToolDefinition{
			{
				Name:        "calculator",
				Description: "Evaluates math expressions",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"expression": map[string]any{"type": "string"},
					},
					"required": []string{"expression"},
				},
			},
		},
	})
	require.NoError(t, err)

	params, ok := preq.Payload.(anthropicsdk.MessageNewParams)
	require.True(t, ok)
	require.Len(t, params.Tools, 1)
	require.NotNil(t, params.Tools[0].OfTool)
	assert.Equal(t, "calculator", params.Tools[0].OfTool.Name)
	assert.Equal(t, []string{"expression"}, params.Tools[0].OfTool.InputSchema.Required)
}
