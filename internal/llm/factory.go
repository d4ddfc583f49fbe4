package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-haiku-4-5-20251001"
)

// Config selects and configures the companion's model backend.
// Provider is one of "openai", "anthropic", "mock" or "none".
type Config struct {
	Provider  string
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewProvider builds the configured provider wrapped with logging.
func NewProvider(cfg Config, log *zap.Logger) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		base = NewMockProvider()
	case "", "none":
		base = disabledProvider{}
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return WithLogging(base, log), nil
}
