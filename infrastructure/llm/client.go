// Package llm provides the vendor chat clients used by the benchmark
// runner, abstracted behind a common interface with middleware support for
// retries, rate limiting, and metrics.
//
// Providers are selected by an explicit enumerated tag rather than URL or
// model-name sniffing. The openai_compatible provider covers every backend
// exposing the OpenAI chat-completions wire format (Qwen, DeepSeek, GLM,
// Doubao, and OpenAI itself); Anthropic and Google Gemini have dedicated
// providers.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/kidtalk/tutorbench/internal/domain"
	"github.com/kidtalk/tutorbench/internal/ports"
)

// ProviderTag enumerates the supported provider implementations.
type ProviderTag string

// Supported provider tags.
const (
	// ProviderOpenAICompatible speaks the OpenAI chat-completions protocol
	// against a configurable base URL. It is the only provider that can
	// measure TTFB, via streaming.
	ProviderOpenAICompatible ProviderTag = "openai_compatible"

	// ProviderAnthropic uses the Anthropic messages API.
	ProviderAnthropic ProviderTag = "anthropic"

	// ProviderGoogle uses the Google Gemini API.
	ProviderGoogle ProviderTag = "google"
)

// ChatResult is the raw outcome of one provider chat call, before the
// client folds it into the domain.ModelResponse union.
type ChatResult struct {
	// Content is the generated response text.
	Content string

	// Usage is the provider-reported token usage; zero when unreported.
	Usage domain.TokenUsage

	// TTFB is the measured time to first content token. Zero means the
	// provider could not measure it (non-streaming request or protocol);
	// the client then reports TTFB equal to total latency.
	TTFB time.Duration
}

// CoreLLM is the minimal interface a provider implements. Middleware wraps
// any conforming implementation.
type CoreLLM interface {
	// DoChat sends one chat request and returns the raw result.
	DoChat(ctx context.Context, req domain.ChatRequest) (ChatResult, error)

	// GetModel returns the currently configured model identifier.
	GetModel() string

	// SetModel updates the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM implementation to add cross-cutting behavior
// such as retries, rate limiting, or metrics collection.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds everything needed to construct one model client.
type ClientConfig struct {
	// Name is the display name used in records and reports ("Qwen-Max").
	Name string

	// Provider selects the implementation.
	Provider ProviderTag

	// APIKey authenticates requests to the provider.
	APIKey string

	// Model is the provider-side model identifier.
	Model string

	// BaseURL overrides the provider's default endpoint. Required for
	// openai_compatible backends other than OpenAI itself.
	BaseURL string

	// Timeout bounds each individual request. Zero uses the provider
	// default.
	Timeout time.Duration

	// Middleware is applied outermost-first around the provider.
	Middleware []Middleware
}

// ProviderFactory creates a CoreLLM implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[ProviderTag]ProviderFactory{}

// RegisterProviderFactory registers a provider implementation under a tag.
// Called from provider init functions; custom providers may register here
// as well.
func RegisterProviderFactory(tag ProviderTag, factory ProviderFactory) {
	providerFactories[tag] = factory
}

var _ ports.ModelClient = (*Client)(nil)

// Client adapts a middleware-wrapped CoreLLM to the ports.ModelClient
// contract: it measures wall latency around the full chain and folds every
// outcome, including errors, into the ModelResponse union.
type Client struct {
	name string
	core CoreLLM
}

// NewClient assembles a model client for the configured provider with its
// middleware chain applied.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("client name is required")
	}
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[config.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, config.Provider)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", config.Provider, err)
	}

	// Apply middleware in reverse order so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{name: config.Name, core: core}, nil
}

// Name returns the client's display name.
func (c *Client) Name() string { return c.name }

// CheckConfig reports whether the client is usable. Construction already
// validates configuration, so a built client always passes.
func (c *Client) CheckConfig() error { return nil }

// Chat sends one request through the middleware chain. Errors become the
// failure arm of the response union; this method never panics and never
// returns a Go error, so one failing model cannot abort a run.
func (c *Client) Chat(ctx context.Context, req domain.ChatRequest) domain.ModelResponse {
	start := time.Now()
	result, err := c.core.DoChat(ctx, req)
	latency := time.Since(start).Seconds()

	if err != nil {
		return domain.FailureResponse(err.Error(), latency)
	}

	ttfb := result.TTFB.Seconds()
	if ttfb <= 0 {
		// Non-streaming responses arrive whole; first token time is the
		// full round trip.
		ttfb = latency
	}

	return domain.SuccessResponse(result.Content, latency, ttfb, result.Usage)
}
