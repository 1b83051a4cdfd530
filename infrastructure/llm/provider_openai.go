package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// openAIDefaultModel is used when a config omits the model identifier.
const openAIDefaultModel = "gpt-4o-mini"

func init() {
	RegisterProviderFactory(ProviderOpenAICompatible, newOpenAIProvider)
}

// openAIProvider implements CoreLLM over the OpenAI chat-completions wire
// format. With a custom BaseURL it serves any compatible backend (Qwen via
// DashScope, DeepSeek, GLM, Doubao). It is the only provider that measures
// TTFB, by streaming and timestamping the first content delta.
type openAIProvider struct {
	BaseProvider
	client          *openai.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

func newOpenAIProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = openAIDefaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)

	if config.BaseURL != "" {
		if err := ValidateBaseURL(config.BaseURL); err != nil {
			return nil, err
		}
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}

	clientConfig.HTTPClient = &http.Client{
		Timeout: NormalizeTimeout(config.Timeout),
	}

	return &openAIProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          openai.NewClientWithConfig(clientConfig),
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: string(ProviderOpenAICompatible)},
	}, nil
}

// DoChat sends one chat request, streaming when requested so the first
// content delta can be timestamped for TTFB.
func (p *openAIProvider) DoChat(ctx context.Context, req domain.ChatRequest) (ChatResult, error) {
	apiReq := p.buildRequest(req)

	if req.Stream {
		return p.doStreaming(ctx, apiReq)
	}
	return p.doBlocking(ctx, apiReq)
}

func (p *openAIProvider) doBlocking(ctx context.Context, apiReq openai.ChatCompletionRequest) (ChatResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return ChatResult{}, p.handleError(err)
	}
	if len(resp.Choices) == 0 {
		return ChatResult{}, ErrNoResponseChoice
	}

	content := resp.Choices[0].Message.Content
	return ChatResult{
		Content: content,
		Usage: domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: p.tokenCounter.GetTokenCount(resp.Usage.CompletionTokens, content),
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *openAIProvider) doStreaming(ctx context.Context, apiReq openai.ChatCompletionRequest) (ChatResult, error) {
	apiReq.Stream = true
	apiReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	start := time.Now()
	stream, err := p.client.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return ChatResult{}, p.handleError(err)
	}
	defer stream.Close()

	var (
		content strings.Builder
		usage   domain.TokenUsage
		ttfb    time.Duration
	)

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return ChatResult{}, p.handleError(recvErr)
		}

		// The usage-only final chunk carries no choices.
		if chunk.Usage != nil {
			usage = domain.TokenUsage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if ttfb == 0 {
			ttfb = time.Since(start)
		}
		content.WriteString(delta)
	}

	text := content.String()
	if text == "" {
		return ChatResult{}, ErrEmptyResponse
	}
	if usage.IsZero() {
		usage.CompletionTokens = p.tokenCounter.EstimateTokens(text)
		usage.TotalTokens = usage.CompletionTokens
	}

	return ChatResult{Content: text, Usage: usage, TTFB: ttfb}, nil
}

func (p *openAIProvider) buildRequest(req domain.ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserInput,
	})

	apiReq := openai.ChatCompletionRequest{
		Model:    p.GetModel(),
		Messages: messages,
	}
	if req.Temperature != nil {
		// The chat-completions API accepts temperatures in [0, 2].
		apiReq.Temperature = float32(clampFloat64(*req.Temperature, 0.0, 2.0))
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = req.MaxTokens
	}
	return apiReq
}

func (p *openAIProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}

	return NewProviderError(string(ProviderOpenAICompatible), ErrorTypeUnknown, 0,
		fmt.Sprintf("request failed: %v", err), err)
}

func clampFloat64(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
