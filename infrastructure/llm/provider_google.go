package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// googleDefaultModel is used when a config omits the model identifier.
const googleDefaultModel = "gemini-2.0-flash"

func init() {
	RegisterProviderFactory(ProviderGoogle, newGoogleProvider)
}

// googleProvider implements CoreLLM for the Google Gemini API. Requests are
// non-streaming, so TTFB is left zero and the client reports it as total
// latency.
type googleProvider struct {
	BaseProvider
	client          *genai.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = googleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Google client: %w", err)
	}

	return &googleProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          client,
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: string(ProviderGoogle)},
	}, nil
}

// DoChat sends one chat request to the Gemini generate-content API.
func (p *googleProvider) DoChat(ctx context.Context, req domain.ChatRequest) (ChatResult, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(req.UserInput, genai.RoleUser),
	}
	config := p.buildGenerationConfig(req)

	resp, err := p.client.Models.GenerateContent(ctx, p.GetModel(), contents, config)
	if err != nil {
		return ChatResult{}, p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return ChatResult{}, ErrEmptyResponse
	}

	return ChatResult{
		Content: content,
		Usage:   p.buildUsage(resp.UsageMetadata, content),
	}, nil
}

func (p *googleProvider) buildGenerationConfig(req domain.ChatRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		// Gemini accepts temperatures in [0, 2].
		config.Temperature = genai.Ptr(float32(clampFloat64(*req.Temperature, 0.0, 2.0)))
	}
	if req.MaxTokens > 0 {
		if req.MaxTokens > math.MaxInt32 {
			config.MaxOutputTokens = math.MaxInt32
		} else {
			config.MaxOutputTokens = int32(req.MaxTokens)
		}
	}

	return config
}

func (p *googleProvider) buildUsage(usage *genai.GenerateContentResponseUsageMetadata, content string) domain.TokenUsage {
	var promptTokens, completionTokens int
	if usage != nil {
		promptTokens = int(usage.PromptTokenCount)
		completionTokens = int(usage.CandidatesTokenCount)
	}
	completionTokens = p.tokenCounter.GetTokenCount(completionTokens, content)

	return domain.TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

func (p *googleProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}

		if containsContentPolicyError(apiErr) {
			return NewProviderError(string(ProviderGoogle), ErrorTypeContentPolicy, apiErr.Code,
				"request blocked by safety filters", err)
		}

		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, message, err)
	}

	return NewProviderError(string(ProviderGoogle), ErrorTypeUnknown, 0, "request failed", err)
}

// containsContentPolicyError reports whether a Google API error stems from a
// content policy violation rather than a transport or quota problem.
func containsContentPolicyError(apiErr *googleapi.Error) bool {
	if apiErr.Message != "" {
		lower := strings.ToLower(apiErr.Message)
		if strings.Contains(lower, "safety") ||
			strings.Contains(lower, "policy") ||
			strings.Contains(lower, "blocked") {
			return true
		}
	}

	for _, e := range apiErr.Errors {
		if e.Reason == "SAFETY" || e.Reason == "BLOCKED" {
			return true
		}
	}

	return false
}
