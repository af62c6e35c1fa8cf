package extraction

import (
	"errors"
	"fmt"
)

// Common extraction errors.
var (
	// ErrExtractionFailed covers any malformed or incomplete summarization
	// response: parse failures, missing required fields, out-of-range
	// confidence. Never retried; the exchange is simply dropped.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrNotConfigured indicates the provider has no usable credentials.
	ErrNotConfigured = errors.New("extraction provider not configured")
)

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds extraction provider configuration.
type Config struct {
	// Provider selects the summarization backend: "anthropic" or "openai".
	Provider string `koanf:"provider"`

	// APIKey authenticates against the provider.
	APIKey string `koanf:"api_key"`

	// Model overrides the provider's default model when non-empty.
	Model string `koanf:"model"`

	// BaseURL overrides the provider's API endpoint when non-empty.
	BaseURL string `koanf:"base_url"`

	// Timeout is the per-request timeout in seconds. Zero uses the default.
	Timeout int `koanf:"timeout"`
}

// Validate checks provider configuration.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("provider must be %q or %q, got %q",
			ProviderAnthropic, ProviderOpenAI, c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key required", ErrNotConfigured)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}
