package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LongestPrefixWins(t *testing.T) {
	short := NewMockStrategy("short")
	long := NewMockStrategy("long")

	reg := NewRegistry()
	require.NoError(t, reg.Register("gpt-", short))
	require.NoError(t, reg.Register("gpt-4o", long))

	got, err := reg.Resolve("gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "long", got.FamilyID())

	got, err = reg.Resolve("gpt-3.5-turbo")
	require.NoError(t, err)
	assert.Equal(t, "short", got.FamilyID())
}

func TestRegistry_UnknownModel(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("claude-", NewMockStrategy("anthropic")))

	_, err := reg.Resolve("gemini-pro")
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "model_id", cfgErr.Field)
}

func TestRegistry_RegisterRejectsInvalid(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register("", NewMockStrategy("mock")))
	assert.Error(t, reg.Register("claude-", nil))

	require.NoError(t, reg.Register("claude-", NewMockStrategy("mock")))
	assert.Error(t, reg.Register("claude-", NewMockStrategy("other")))
}

func TestRegistry_Prefixes(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("o1", NewMockStrategy("openai")))
	require.NoError(t, reg.Register("claude-", NewMockStrategy("anthropic")))
	require.NoError(t, reg.Register("gpt-", NewMockStrategy("openai")))

	assert.Equal(t, []string{"claude-", "gpt-", "o1"}, reg.Prefixes())
	assert.Equal(t, 3, reg.Len())
}
