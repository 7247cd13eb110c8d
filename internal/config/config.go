// Package config provides global configuration for hypergen: default ask
// mode, concurrency, AI provider selection, and kit search roots.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
)

// AIConfig mirrors the teacher's AIConfig shape, retargeted from Dockerfile
// generation to the variable-resolution / two-pass transport.
type AIConfig struct {
	Provider  string `mapstructure:"provider"` // anthropic, openai, ollama
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
	TimeoutS  int    `mapstructure:"timeout"`
}

// DefaultsConfig holds defaults applied when the CLI doesn't override them.
type DefaultsConfig struct {
	AskMode         string `mapstructure:"ask_mode"` // me, ai, nobody
	MaxConcurrency  int    `mapstructure:"max_concurrency"`
	ContinueOnError bool   `mapstructure:"continue_on_error"`
}

// DiscoveryConfig holds kit search roots beyond the built-in ones.
type DiscoveryConfig struct {
	SearchRoots []string `mapstructure:"search_roots"`
}

// Config is the full, layered configuration object.
type Config struct {
	AI        AIConfig        `mapstructure:"ai"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

// defaults mirrors the teacher's DefaultConfig(). Provider and Model stay
// empty: an empty provider means "probe Anthropic, OpenAI, Ollama in order"
// (internal/ai's resolveBackend), and each backend supplies its own default
// model, so pinning one here would leak an Anthropic model name into an
// OpenAI or Ollama call.
func defaults() *Config {
	return &Config{
		AI: AIConfig{
			MaxTokens: 4096,
			TimeoutS:  120,
		},
		Defaults: DefaultsConfig{
			AskMode:        "me",
			MaxConcurrency: 4,
		},
	}
}

// Load layers, highest precedence first: environment variables
// (HYPERGEN_<SECTION>_<KEY>, e.g. HYPERGEN_AI_MODEL), then one config file,
// then built-in defaults. The config file is the first that exists of
// .hypergen.yml, .hypergen.yaml, ~/.config/hypergen/config.yml and
// ~/.hypergen.yml; later candidates are not read or merged once one is found.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := defaults()
	setViperDefaults(v, cfg)

	v.SetEnvPrefix("HYPERGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	candidates := []string{
		".hypergen.yml",
		".hypergen.yaml",
		filepath.Join(homeDir(), ".config", "hypergen", "config.yml"),
		filepath.Join(homeDir(), ".hypergen.yml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, wrapConfigErr(err)
			}
			break
		}
	}

	out := defaults()
	if err := v.Unmarshal(out); err != nil {
		return nil, wrapConfigErr(err)
	}

	applyLegacyEnvOverrides(out)
	return out, nil
}

func setViperDefaults(v interface{ SetDefault(string, interface{}) }, cfg *Config) {
	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.timeout", cfg.AI.TimeoutS)
	v.SetDefault("defaults.ask_mode", cfg.Defaults.AskMode)
	v.SetDefault("defaults.max_concurrency", cfg.Defaults.MaxConcurrency)
	v.SetDefault("defaults.continue_on_error", cfg.Defaults.ContinueOnError)
}

// applyLegacyEnvOverrides keeps parity with the teacher's practice of
// accepting both a current and a legacy environment variable prefix. The
// provider override runs first so the key copy below sees the provider the
// user actually asked for. When no provider is named, the key copy is
// skipped entirely: internal/ai's auto-probe reads the provider key
// environment variables itself.
func applyLegacyEnvOverrides(cfg *Config) {
	if provider := os.Getenv("HYPERGEN_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	} else if provider := os.Getenv("HYPER_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case "anthropic":
			cfg.AI.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

func homeDir() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return h
}

func wrapConfigErr(err error) error {
	return &configError{cause: err}
}

type configError struct{ cause error }

func (e *configError) Error() string { return hgerrors.ErrConfigLoad.Error() + ": " + e.cause.Error() }
func (e *configError) Unwrap() error { return hgerrors.ErrConfigLoad }
