package llm

import (
	"context"
	"errors"
	"time"

	"github.com/kidtalk/tutorbench/internal/domain"
	"github.com/kidtalk/tutorbench/internal/ports"
)

// metricsLLM records request latency, counts, and token usage per provider
// and model for operational monitoring of long benchmark runs.
type metricsLLM struct {
	next      CoreLLM
	provider  ProviderTag
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that collects request metrics under
// the given provider tag. A nil collector disables collection.
func MetricsMiddleware(provider ProviderTag, collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{
			next:      next,
			provider:  provider,
			collector: collector,
		}
	}
}

// DoChat executes the request while recording latency, status, and token
// usage.
func (m *metricsLLM) DoChat(ctx context.Context, req domain.ChatRequest) (ChatResult, error) {
	start := time.Now()
	result, err := m.next.DoChat(ctx, req)

	if m.collector == nil {
		return result, err
	}

	labels := map[string]string{
		"provider": string(m.provider),
		"model":    m.next.GetModel(),
		"status":   m.status(ctx, err),
	}

	m.collector.RecordHistogram("llm_request_duration_seconds", time.Since(start).Seconds(), labels)
	m.collector.RecordCounter("llm_requests_total", 1, labels)

	if err == nil {
		labels["token_type"] = "prompt"
		m.collector.RecordCounter("llm_tokens_total", float64(result.Usage.PromptTokens), labels)

		labels["token_type"] = "completion"
		m.collector.RecordCounter("llm_tokens_total", float64(result.Usage.CompletionTokens), labels)
	}

	return result, err
}

func (m *metricsLLM) status(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(mod string) { m.next.SetModel(mod) }
