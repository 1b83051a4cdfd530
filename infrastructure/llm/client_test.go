package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// fakeCoreLLM is a scriptable CoreLLM used to exercise the client and
// middleware without touching a provider.
type fakeCoreLLM struct {
	model  string
	result ChatResult
	err    error
	calls  atomic.Int32

	// failuresBeforeSuccess makes the first N calls return err, then succeed.
	failuresBeforeSuccess int32
}

func (f *fakeCoreLLM) DoChat(ctx context.Context, req domain.ChatRequest) (ChatResult, error) {
	call := f.calls.Add(1)
	if f.err != nil && (f.failuresBeforeSuccess == 0 || call <= f.failuresBeforeSuccess) {
		return ChatResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeCoreLLM) GetModel() string  { return f.model }
func (f *fakeCoreLLM) SetModel(m string) { f.model = m }

type mockMetricsCollector struct {
	histograms map[string]float64
	counters   map[string]float64
	gauges     map[string]float64
}

func newMockMetricsCollector() *mockMetricsCollector {
	return &mockMetricsCollector{
		histograms: make(map[string]float64),
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
	}
}

func (m *mockMetricsCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	m.histograms[metricKey(operation, labels)] = duration.Seconds()
}

func (m *mockMetricsCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	m.counters[metricKey(metric, labels)] += value
}

func (m *mockMetricsCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	m.gauges[metricKey(metric, labels)] = value
}

func (m *mockMetricsCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.histograms[metricKey(metric, labels)] = value
}

func metricKey(metric string, labels map[string]string) string {
	return fmt.Sprintf("%s:%s:%s:%s", metric, labels["provider"], labels["status"], labels["token_type"])
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  ClientConfig
		wantErr error
	}{
		{
			name:    "missing name",
			config:  ClientConfig{Provider: ProviderOpenAICompatible, APIKey: "key"},
			wantErr: nil, // generic error, checked separately
		},
		{
			name:    "missing API key",
			config:  ClientConfig{Name: "Qwen-Max", Provider: ProviderOpenAICompatible},
			wantErr: ErrEmptyAPIKey,
		},
		{
			name:    "unknown provider",
			config:  ClientConfig{Name: "Mystery", Provider: "mystery", APIKey: "key"},
			wantErr: ErrUnknownProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			require.Error(t, err)
			assert.Nil(t, client)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewClientOpenAICompatible(t *testing.T) {
	client, err := NewClient(ClientConfig{
		Name:     "DeepSeek-Chat",
		Provider: ProviderOpenAICompatible,
		APIKey:   "test-key",
		Model:    "deepseek-chat",
		BaseURL:  "https://api.deepseek.com/v1",
	})
	require.NoError(t, err)
	assert.Equal(t, "DeepSeek-Chat", client.Name())
	assert.NoError(t, client.CheckConfig())
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{
		Name:     "Broken",
		Provider: ProviderOpenAICompatible,
		APIKey:   "test-key",
		BaseURL:  "ftp://example.com",
	})
	require.Error(t, err)
}

func TestClientChatSuccess(t *testing.T) {
	core := &fakeCoreLLM{
		model: "test-model",
		result: ChatResult{
			Content: "Hello! Great job!",
			Usage:   domain.TokenUsage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17},
			TTFB:    30 * time.Millisecond,
		},
	}
	client := &Client{name: "Fake", core: core}

	resp := client.Chat(context.Background(), domain.ChatRequest{UserInput: "hi"})

	require.False(t, resp.IsError())
	assert.Equal(t, "Hello! Great job!", resp.Content)
	assert.Equal(t, 17, resp.Tokens.TotalTokens)
	assert.InDelta(t, 0.03, resp.TTFB, 0.02)
	assert.GreaterOrEqual(t, resp.Latency, resp.TTFB)
}

func TestClientChatTTFBFallsBackToLatency(t *testing.T) {
	core := &fakeCoreLLM{result: ChatResult{Content: "whole response"}}
	client := &Client{name: "Fake", core: core}

	resp := client.Chat(context.Background(), domain.ChatRequest{UserInput: "hi"})

	require.False(t, resp.IsError())
	assert.Equal(t, resp.Latency, resp.TTFB)
}

func TestClientChatFoldsErrorIntoFailure(t *testing.T) {
	core := &fakeCoreLLM{err: errors.New("connection refused")}
	client := &Client{name: "Fake", core: core}

	resp := client.Chat(context.Background(), domain.ChatRequest{UserInput: "hi"})

	require.True(t, resp.IsError())
	assert.Contains(t, resp.Err, "connection refused")
	assert.Empty(t, resp.Content)
	assert.GreaterOrEqual(t, resp.Latency, 0.0)
}

func TestRetryMiddlewareRetriesTransientFailures(t *testing.T) {
	core := &fakeCoreLLM{
		err:                   NewProviderError("test", ErrorTypeServerError, 503, "overloaded", nil),
		failuresBeforeSuccess: 2,
		result:                ChatResult{Content: "finally"},
	}
	wrapped := RetryMiddleware(3, time.Millisecond, 5*time.Millisecond)(core)

	result, err := wrapped.DoChat(context.Background(), domain.ChatRequest{UserInput: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "finally", result.Content)
	assert.Equal(t, int32(3), core.calls.Load())
}

func TestRetryMiddlewareStopsOnNonRetryable(t *testing.T) {
	core := &fakeCoreLLM{
		err: NewProviderError("test", ErrorTypeAuthentication, 401, "bad key", nil),
	}
	wrapped := RetryMiddleware(3, time.Millisecond, 5*time.Millisecond)(core)

	_, err := wrapped.DoChat(context.Background(), domain.ChatRequest{UserInput: "hi"})

	require.Error(t, err)
	assert.Equal(t, int32(1), core.calls.Load())
}

func TestRetryMiddlewareExhaustsAttempts(t *testing.T) {
	core := &fakeCoreLLM{
		err: NewProviderError("test", ErrorTypeRateLimit, 429, "slow down", nil),
	}
	wrapped := RetryMiddleware(2, time.Millisecond, 5*time.Millisecond)(core)

	_, err := wrapped.DoChat(context.Background(), domain.ChatRequest{UserInput: "hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), core.calls.Load())
}

func TestRateLimitMiddlewarePacesRequests(t *testing.T) {
	core := &fakeCoreLLM{result: ChatResult{Content: "ok"}}
	wrapped := RateLimitMiddleware(rate.Limit(100), 1)(core)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := wrapped.DoChat(context.Background(), domain.ChatRequest{UserInput: "hi"})
		require.NoError(t, err)
	}

	// Burst of 1 at 100 req/s means the second and third calls each wait
	// roughly 10ms.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestMetricsMiddlewareRecordsOutcomes(t *testing.T) {
	collector := newMockMetricsCollector()
	core := &fakeCoreLLM{
		model: "test-model",
		result: ChatResult{
			Content: "ok",
			Usage:   domain.TokenUsage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14},
		},
	}
	wrapped := MetricsMiddleware(ProviderOpenAICompatible, collector)(core)

	_, err := wrapped.DoChat(context.Background(), domain.ChatRequest{UserInput: "hi"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, collector.counters["llm_requests_total:openai_compatible:success:"])
	assert.Equal(t, 10.0, collector.counters["llm_tokens_total:openai_compatible:success:prompt"])
	assert.Equal(t, 4.0, collector.counters["llm_tokens_total:openai_compatible:success:completion"])
	assert.Contains(t, collector.histograms, "llm_request_duration_seconds:openai_compatible:success:")
}

func TestMetricsMiddlewareRecordsErrors(t *testing.T) {
	collector := newMockMetricsCollector()
	core := &fakeCoreLLM{err: errors.New("boom")}
	wrapped := MetricsMiddleware(ProviderAnthropic, collector)(core)

	_, err := wrapped.DoChat(context.Background(), domain.ChatRequest{UserInput: "hi"})
	require.Error(t, err)

	assert.Equal(t, 1.0, collector.counters["llm_requests_total:anthropic:error:"])
	assert.NotContains(t, collector.counters, "llm_tokens_total:anthropic:error:prompt")
}

func TestMiddlewareOrderOutermostFirst(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return &taggingLLM{next: next, name: name, order: &order}
		}
	}

	RegisterProviderFactory("ordered-fake", func(ClientConfig) (CoreLLM, error) {
		return &fakeCoreLLM{result: ChatResult{Content: "ok"}}, nil
	})

	client, err := NewClient(ClientConfig{
		Name:       "Ordered",
		Provider:   "ordered-fake",
		APIKey:     "key",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	resp := client.Chat(context.Background(), domain.ChatRequest{UserInput: "hi"})
	require.False(t, resp.IsError())
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type taggingLLM struct {
	next  CoreLLM
	name  string
	order *[]string
}

func (t *taggingLLM) DoChat(ctx context.Context, req domain.ChatRequest) (ChatResult, error) {
	*t.order = append(*t.order, t.name)
	return t.next.DoChat(ctx, req)
}

func (t *taggingLLM) GetModel() string  { return t.next.GetModel() }
func (t *taggingLLM) SetModel(m string) { t.next.SetModel(m) }

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	require.Equal(t, 0, registry.Len())

	a := &Client{name: "Qwen-Max", core: &fakeCoreLLM{}}
	b := &Client{name: "DeepSeek-Chat", core: &fakeCoreLLM{}}
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))

	assert.Error(t, registry.Register(&Client{name: "Qwen-Max", core: &fakeCoreLLM{}}))

	got, ok := registry.Get("DeepSeek-Chat")
	require.True(t, ok)
	assert.Equal(t, "DeepSeek-Chat", got.Name())

	_, ok = registry.Get("GLM-4")
	assert.False(t, ok)

	assert.Equal(t, []string{"DeepSeek-Chat", "Qwen-Max"}, registry.Names())
}
