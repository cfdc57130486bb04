package llm

import (
	"context"
	"fmt"

	"github.com/mathmaster/mathmaster/internal/logger"
	"github.com/mathmaster/mathmaster/internal/store"
)

// New builds the configured provider wrapped as retry → recorder → vendor,
// so each attempt is recorded separately. It returns ErrNotConfigured when
// cfg.Provider is empty.
func New(ctx context.Context, cfg Config, repo store.LLMRequestRepo, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "":
		return nil, ErrNotConfigured
	case "anthropic":
		base, err = NewAnthropic(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAI(cfg.OpenAI)
	case "gemini":
		base, err = NewGemini(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithRecorder(base, repo, log), cfg.Retry), nil
}
