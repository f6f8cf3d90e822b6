package llm

import (
	"context"
	"errors"
)

// ErrMalformedResponse marks a reply whose envelope could not be decoded or
// carried no content. Callers treat it apart from transport failures.
var ErrMalformedResponse = errors.New("malformed generation response")

// Provider defines the interface for generative text services
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one non-streaming request and returns the reply text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single prompt submitted to a provider
type CompletionRequest struct {
	// Prompt is the user message
	Prompt string

	// System is an optional system instruction
	System string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature overrides the configured sampling temperature when non-zero
	Temperature float64
}

// CompletionResponse is the provider's reply
type CompletionResponse struct {
	// Text is the generated content, e.g. choices[0].message.content
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "huggingface", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted services
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, Hugging Face router)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Timeout:     60,
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2048
}

func (c Config) temperature(req CompletionRequest) float64 {
	if req.Temperature != 0 {
		return req.Temperature
	}
	return c.Temperature
}
