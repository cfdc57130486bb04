package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and configures a provider. An empty Provider disables
// LLM features.
type Config struct {
	Provider string

	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

func DefaultConfig() Config {
	return Config{
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv reads MATHMASTER_* variables. Without
// MATHMASTER_LLM_PROVIDER the first vendor key found among
// ANTHROPIC_API_KEY, OPENAI_API_KEY and GEMINI_API_KEY selects the provider.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setenv := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	setenv(&cfg.Anthropic.APIKey, "MATHMASTER_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	setenv(&cfg.Anthropic.Model, "MATHMASTER_ANTHROPIC_MODEL")
	setenv(&cfg.OpenAI.APIKey, "MATHMASTER_OPENAI_API_KEY", "OPENAI_API_KEY")
	setenv(&cfg.OpenAI.Model, "MATHMASTER_OPENAI_MODEL")
	setenv(&cfg.OpenAI.BaseURL, "MATHMASTER_OPENAI_BASE_URL")
	setenv(&cfg.Gemini.APIKey, "MATHMASTER_GEMINI_API_KEY", "GEMINI_API_KEY")
	setenv(&cfg.Gemini.Model, "MATHMASTER_GEMINI_MODEL")

	if p := os.Getenv("MATHMASTER_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	} else {
		switch {
		case cfg.Anthropic.APIKey != "":
			cfg.Provider = "anthropic"
		case cfg.OpenAI.APIKey != "":
			cfg.Provider = "openai"
		case cfg.Gemini.APIKey != "":
			cfg.Provider = "gemini"
		}
	}

	if t := os.Getenv("MATHMASTER_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

// Validate checks that the selected provider has what it needs.
func (c Config) Validate() error {
	switch c.Provider {
	case "", "mock":
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("MATHMASTER_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("MATHMASTER_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("MATHMASTER_GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
