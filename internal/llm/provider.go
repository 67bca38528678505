package llm

import (
	"context"
	"time"
)

// Provider defines the interface for generative providers. The engine
// uses it at three call sites: claim extraction, claim validation, and
// narrative article generation. All three demand structured output and
// treat malformed responses as errors at the call site, never here.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single system+user prompt and returns the raw
	// completion text. Callers own response parsing and schema checks.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health checks that the provider is configured and reachable.
	// A non-nil error at startup is fatal in live mode.
	Health(ctx context.Context) error
}

// CompletionRequest is the input for one generative call
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // overrides the configured default when set
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the raw provider output plus usage accounting
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds generative provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, proxies)
	BaseURL string

	// Timeout per API request, seconds
	Timeout int

	// MaxTokens default for response generation
	MaxTokens int
}

// timeoutOr returns the configured request timeout with a floor default
func (c Config) timeoutOr(def time.Duration) time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return def
}
