package llm

import "testing"

func clearLLMEnv(t *testing.T) {
	for _, name := range []string{"GEMINI", "OPENAI", "ANTHROPIC"} {
		t.Setenv("FINSCHOLARS_"+name+"_API_KEY", "")
		t.Setenv(name+"_API_KEY", "")
		t.Setenv("FINSCHOLARS_"+name+"_MODEL", "")
		t.Setenv("FINSCHOLARS_"+name+"_BASE_URL", "")
	}
	t.Setenv("FINSCHOLARS_LLM_PROVIDER", "")
}

func TestConfigFromEnvDiscoversProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenAI || cfg.Selected().APIKey != "sk-test" {
		t.Errorf("cfg = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestConfigFromEnvExplicitProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("FINSCHOLARS_LLM_PROVIDER", "anthropic")
	t.Setenv("FINSCHOLARS_ANTHROPIC_MODEL", "claude-sonnet")
	t.Setenv("GEMINI_API_KEY", "g")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderAnthropic || cfg.Anthropic.Model != "claude-sonnet" {
		t.Errorf("cfg = %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("anthropic without key should not validate")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"mock needs no key", func(c *Config) { c.Provider = ProviderMock }, false},
		{"gemini with key", func(c *Config) { c.Gemini.APIKey = "k" }, false},
		{"gemini without key", func(c *Config) {}, true},
		{"unknown provider", func(c *Config) { c.Provider = "llama" }, true},
		{"zero attempts", func(c *Config) { c.Gemini.APIKey = "k"; c.Retry.MaxAttempts = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
