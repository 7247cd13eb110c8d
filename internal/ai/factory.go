package ai

import (
	"context"

	"github.com/hypergen/hypergen/internal/config"
	"github.com/hypergen/hypergen/internal/ports"
)

// Backend bundles the two AI-facing ports a single provider satisfies, so
// callers needing both the template collector transport and the variable
// batch resolver can hold one value.
type Backend interface {
	ports.Transport
	ports.AiVariableResolver
}

// New builds the configured AI backend, falling through Anthropic -> OpenAI
// -> Ollama -> StdoutTransport exactly like the teacher's getAIProvider().
func New(ctx context.Context, cfg config.AIConfig) ports.Transport {
	backend := resolveBackend(ctx, cfg)
	if backend == nil {
		return StdoutTransport{}
	}
	return backend
}

// NewVariableResolver is the askMode=ai counterpart to New, used by the
// variable resolver's batch path; it returns nil when no provider is
// configured so the caller can fall back to leaving variables unresolved.
func NewVariableResolver(ctx context.Context, cfg config.AIConfig) ports.AiVariableResolver {
	return resolveBackend(ctx, cfg)
}

// resolveBackend picks a provider. An explicitly configured ai.provider is
// honored alone: if its credentials are missing the caller gets nil rather
// than a silent switch to a provider the user didn't name. With no explicit
// provider, each backend is probed for usable credentials in the teacher's
// getAIProvider() order: Anthropic, then OpenAI, then a local Ollama daemon.
func resolveBackend(ctx context.Context, cfg config.AIConfig) Backend {
	switch cfg.Provider {
	case "anthropic":
		if key := anthropicKey(cfg); key != "" {
			return NewAnthropicTransport(key, cfg.Model, cfg.MaxTokens)
		}
		return nil
	case "openai":
		if key := openaiKey(cfg); key != "" {
			return NewOpenAITransport(key, cfg.Model, cfg.BaseURL, cfg.MaxTokens)
		}
		return nil
	case "ollama":
		if t := NewOllamaTransport(cfg.BaseURL, cfg.Model); t.Available(ctx) {
			return t
		}
		return nil
	}

	if key := anthropicKey(cfg); key != "" {
		return NewAnthropicTransport(key, cfg.Model, cfg.MaxTokens)
	}
	if key := openaiKey(cfg); key != "" {
		return NewOpenAITransport(key, cfg.Model, cfg.BaseURL, cfg.MaxTokens)
	}
	if t := NewOllamaTransport(cfg.BaseURL, cfg.Model); t.Available(ctx) {
		return t
	}
	return nil
}

func anthropicKey(cfg config.AIConfig) string {
	if cfg.Provider == "anthropic" && cfg.APIKey != "" {
		return cfg.APIKey
	}
	return hasAPIKeyEnv("ANTHROPIC_API_KEY")
}

func openaiKey(cfg config.AIConfig) string {
	if cfg.Provider == "openai" && cfg.APIKey != "" {
		return cfg.APIKey
	}
	return hasAPIKeyEnv("OPENAI_API_KEY")
}
