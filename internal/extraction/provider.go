package extraction

import (
	"fmt"

	"github.com/praktiklabs/kurator/internal/knowledge"
)

// New creates an extractor for the configured provider.
func New(cfg Config) (knowledge.Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction config: %w", err)
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropicExtractor(cfg)
	case ProviderOpenAI:
		return newOpenAIExtractor(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
