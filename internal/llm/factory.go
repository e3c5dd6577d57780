package llm

import (
	"context"
	"fmt"

	"github.com/finscholars/finscholars/internal/store"
)

// NewProvider builds the configured provider. Requests pass through the
// timeout, retry and logging layers before the SDK client. events may be nil.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	pc := cfg.Selected()
	switch cfg.Provider {
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, pc)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(pc)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(pc)
	case ProviderMock:
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Provider, err)
	}
	return WithTimeout(WithRetry(WithLogging(base, cfg.Provider, events), cfg.Retry), cfg.Timeout), nil
}
