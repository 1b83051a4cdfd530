package ports

import (
	"time"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions. A nil collector
// is always permitted and disables collection.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram, such as a score
	// distribution or response latency.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// RecordExporter persists a flat tabular view of evaluation records, one
// row per record. The spreadsheet export is an optional capability: report
// generation treats a nil exporter, or an exporter error, as a warning
// rather than a failure.
type RecordExporter interface {
	// Export writes the records to path. The column set is derived from
	// the union of observed dimension sub-metrics.
	Export(records []domain.EvaluationRecord, path string) error
}
