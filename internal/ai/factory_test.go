package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/config"
)

func TestResolveBackend_AutoProbeFindsOpenAIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	b := resolveBackend(context.Background(), config.AIConfig{})
	require.NotNil(t, b)
	_, ok := b.(*OpenAITransport)
	assert.True(t, ok)
}

func TestResolveBackend_AnthropicWinsWhenBothKeysSet(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	b := resolveBackend(context.Background(), config.AIConfig{})
	require.NotNil(t, b)
	_, ok := b.(*AnthropicTransport)
	assert.True(t, ok)
}

func TestResolveBackend_ExplicitProviderIsNotSwitched(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "")

	// The user asked for openai; an available Anthropic key must not be
	// silently substituted.
	b := resolveBackend(context.Background(), config.AIConfig{Provider: "openai"})
	assert.Nil(t, b)
}

func TestResolveBackend_ExplicitProviderUsesConfiguredKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	b := resolveBackend(context.Background(), config.AIConfig{Provider: "anthropic", APIKey: "sk-from-config"})
	require.NotNil(t, b)
	_, ok := b.(*AnthropicTransport)
	assert.True(t, ok)
}

func TestNew_FallsBackToStdoutTransport(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	tr := New(context.Background(), config.AIConfig{Provider: "openai"})
	_, ok := tr.(StdoutTransport)
	assert.True(t, ok)
}
