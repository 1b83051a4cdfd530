package domain

import (
	"time"
)

// SubScores maps sub-metric name to its score. Every score lies in [0,10].
type SubScores map[string]float64

// EvaluationRecord is the evaluator's output for one (test case, model)
// pair and the aggregator's unit of input. Records are immutable once
// produced; the reporting layer only folds them into running statistics.
type EvaluationRecord struct {
	// Model is the display name of the evaluated model.
	Model string `json:"model"`

	// TestCaseID identifies the originating case.
	TestCaseID string `json:"test_case_id"`

	// TestCaseCategory echoes the case category for report grouping.
	TestCaseCategory string `json:"test_case_category,omitempty"`

	// TestCaseAgeLevel echoes the case age level.
	TestCaseAgeLevel int `json:"test_case_age_level,omitempty"`

	// Content is the full response text.
	Content string `json:"content,omitempty"`

	// Latency is the total request duration in seconds.
	Latency float64 `json:"latency,omitempty"`

	// TTFB is the time to first token in seconds.
	TTFB float64 `json:"ttfb,omitempty"`

	// Tokens is the provider-reported usage.
	Tokens TokenUsage `json:"tokens,omitzero"`

	// Scores holds the per-dimension sub-metric scores. Empty (but non-nil)
	// on failure records.
	Scores map[Dimension]SubScores `json:"scores"`

	// TotalScore is the weight-normalized average across the dimensions in
	// UsedDimensions, rounded to two decimals. Zero on failure or when no
	// scored dimension carries a criteria weight.
	TotalScore float64 `json:"total_score"`

	// UsedDimensions lists, in sorted order, the dimensions that actually
	// participated in TotalScore. A scored dimension missing here was
	// dropped because the criteria carry no weight entry for it.
	UsedDimensions []Dimension `json:"used_dimensions,omitempty"`

	// Err carries the client failure string for zero-score records.
	Err string `json:"error,omitempty"`

	// Timestamp records when the evaluation was produced. It is the only
	// field that varies between evaluations of identical inputs.
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// IsError reports whether this is a zero-score failure record.
func (r EvaluationRecord) IsError() bool { return r.Err != "" }

// DimensionAverage returns the unweighted mean of the record's sub-metric
// scores for one dimension, and false when the dimension was not scored.
func (r EvaluationRecord) DimensionAverage(dim Dimension) (float64, bool) {
	subs, ok := r.Scores[dim]
	if !ok || len(subs) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range subs {
		sum += v
	}
	return sum / float64(len(subs)), true
}
