// Package middleware provides cross-cutting concerns for the benchmark
// runner, currently the Prometheus metrics backend.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kidtalk/tutorbench/internal/ports"
)

// Compile-time check that PrometheusMetrics satisfies the collector port.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements ports.MetricsCollector with Prometheus
// instruments. It tracks request volume, latency, and token consumption per
// provider and model, which is what matters when a benchmark run spans
// hundreds of paid API calls.
type PrometheusMetrics struct {
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	runGauges       *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a collector and registers its instruments in
// the given registry. A nil registry uses the global default.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total chat requests issued, by provider, model, and outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total tokens consumed, by provider, model, and token type.",
			},
			[]string{"provider", "model", "token_type"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Wall-clock duration of chat requests.",
				Buckets: []float64{0.1, 0.3, 0.5, 1, 2, 3, 5, 10, 30, 60},
			},
			[]string{"provider", "model", "status"},
		),
		runGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchmark_run_state",
				Help: "Current benchmark run state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records an operation duration in the request histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.requestDuration.WithLabelValues(
		labels["provider"], labels["model"], labels["status"],
	).Observe(duration.Seconds())
}

// RecordCounter increments the counter matching the metric name. Unknown
// metric names fall through to the request counter so no data is dropped.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_tokens_total":
		pm.tokensTotal.WithLabelValues(
			labels["provider"], labels["model"], labels["token_type"],
		).Add(value)
	default:
		pm.requestsTotal.WithLabelValues(
			labels["provider"], labels["model"], labels["status"],
		).Add(value)
	}
}

// RecordGauge sets a run-state gauge value.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.runGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a value in the request duration histogram.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	pm.requestDuration.WithLabelValues(
		labels["provider"], labels["model"], labels["status"],
	).Observe(value)
}
