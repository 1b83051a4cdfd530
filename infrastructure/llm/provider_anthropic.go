package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kidtalk/tutorbench/internal/domain"
)

const (
	// anthropicDefaultModel is used when a config omits the model identifier.
	anthropicDefaultModel = "claude-3-5-sonnet-20241022"

	// anthropicDefaultMaxTokens bounds the response when the request does
	// not set its own limit; the messages API requires one.
	anthropicDefaultMaxTokens = 1024
)

func init() {
	RegisterProviderFactory(ProviderAnthropic, newAnthropicProvider)
}

// anthropicProvider implements CoreLLM for the Anthropic messages API.
// Requests are non-streaming, so TTFB is left zero and the client reports
// it as total latency.
type anthropicProvider struct {
	BaseProvider
	client          anthropic.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

func newAnthropicProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = anthropicDefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(NormalizeTimeout(config.Timeout)),
	}
	if config.BaseURL != "" {
		if err := ValidateBaseURL(config.BaseURL); err != nil {
			return nil, err
		}
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &anthropicProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          anthropic.NewClient(opts...),
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: string(ProviderAnthropic)},
	}, nil
}

// DoChat sends one chat request to the messages API.
func (p *anthropicProvider) DoChat(ctx context.Context, req domain.ChatRequest) (ChatResult, error) {
	params := p.buildParams(req)

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return ChatResult{}, p.handleError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(content.Text)
		}
	}

	content := text.String()
	if content == "" {
		return ChatResult{}, ErrEmptyResponse
	}

	promptTokens := int(message.Usage.InputTokens)
	completionTokens := p.tokenCounter.GetTokenCount(int(message.Usage.OutputTokens), content)
	return ChatResult{
		Content: content,
		Usage: domain.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}, nil
}

func (p *anthropicProvider) buildParams(req domain.ChatRequest) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.GetModel()),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserInput)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		// The messages API accepts temperatures in [0, 1].
		params.Temperature = anthropic.Float(clampFloat64(*req.Temperature, 0.0, 1.0))
	}
	return params
}

func (p *anthropicProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return p.errorClassifier.ClassifyHTTPError(apiErr.StatusCode, "", err)
	}

	return NewProviderError(string(ProviderAnthropic), ErrorTypeUnknown, 0, "request failed", err)
}
