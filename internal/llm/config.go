package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// ProviderConfig is the key and model of one provider. BaseURL is only
// honored by OpenAI-compatible endpoints.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig controls backoff between attempts.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// Config selects and configures the content generation provider.
type Config struct {
	Provider  string
	Gemini    ProviderConfig
	OpenAI    ProviderConfig
	Anthropic ProviderConfig
	Retry     RetryConfig
	Timeout   time.Duration // per request, retries included
}

// modelAliases maps short names to provider model ids. Unknown names are
// passed through.
var modelAliases = map[string]map[string]string{
	ProviderGemini: {
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.0-pro",
	},
	ProviderOpenAI: {
		"gpt-4o":      "gpt-4o",
		"gpt-4o-mini": "gpt-4o-mini",
	},
	ProviderAnthropic: {
		"claude-sonnet": "claude-sonnet-4-20250514",
		"claude-haiku":  "claude-haiku-4-5-20251001",
	},
}

// ResolveModel returns the model id for a provider's alias.
func ResolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}

// DefaultConfig uses Gemini Flash.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderGemini,
		Gemini:    ProviderConfig{Model: "gemini-flash"},
		OpenAI:    ProviderConfig{Model: "gpt-4o-mini"},
		Anthropic: ProviderConfig{Model: "claude-haiku"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv reads FINSCHOLARS_* variables over the defaults. When no
// provider is named, the first provider with a key wins, in the order
// Gemini, OpenAI, Anthropic.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	readProvider(&cfg.Gemini, "GEMINI")
	readProvider(&cfg.OpenAI, "OPENAI")
	readProvider(&cfg.Anthropic, "ANTHROPIC")

	if p := os.Getenv("FINSCHOLARS_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
		return cfg
	}
	switch {
	case cfg.Gemini.APIKey != "":
		cfg.Provider = ProviderGemini
	case cfg.OpenAI.APIKey != "":
		cfg.Provider = ProviderOpenAI
	case cfg.Anthropic.APIKey != "":
		cfg.Provider = ProviderAnthropic
	}
	return cfg
}

// readProvider fills pc from FINSCHOLARS_<NAME>_* and falls back to the
// vendor's own <NAME>_API_KEY.
func readProvider(pc *ProviderConfig, name string) {
	pc.APIKey = os.Getenv("FINSCHOLARS_" + name + "_API_KEY")
	if pc.APIKey == "" {
		pc.APIKey = os.Getenv(name + "_API_KEY")
	}
	if m := os.Getenv("FINSCHOLARS_" + name + "_MODEL"); m != "" {
		pc.Model = m
	}
	if u := os.Getenv("FINSCHOLARS_" + name + "_BASE_URL"); u != "" {
		pc.BaseURL = u
	}
}

// Selected returns the settings of the chosen provider.
func (c Config) Selected() ProviderConfig {
	switch c.Provider {
	case ProviderGemini:
		return c.Gemini
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderAnthropic:
		return c.Anthropic
	}
	return ProviderConfig{}
}

// Validate checks the selected provider has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Selected().APIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider (FINSCHOLARS_%s_API_KEY)", c.Provider, envName(c.Provider))
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

func envName(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI"
	case ProviderOpenAI:
		return "OPENAI"
	default:
		return "ANTHROPIC"
	}
}
