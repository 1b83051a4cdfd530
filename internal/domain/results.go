package domain

import (
	"time"
)

// TestConfig summarizes the suite a results document was produced from.
type TestConfig struct {
	// AgeRange echoes the suite's age range description.
	AgeRange string `json:"age_range,omitempty"`

	// TotalCases is the number of cases in the suite, not the number of
	// records (each case yields one record per model).
	TotalCases int `json:"total_cases"`
}

// ResultsDocument is the persisted output of one benchmark run. Reports are
// derived purely from this document, so the reporting stage can run
// disconnected from model invocation.
type ResultsDocument struct {
	// RunID uniquely identifies the run that produced this document.
	RunID string `json:"run_id,omitempty"`

	// Timestamp records when the run completed.
	Timestamp time.Time `json:"timestamp"`

	// TestConfig summarizes the suite configuration.
	TestConfig TestConfig `json:"test_config"`

	// Results holds one record per (test case, model) pair, ordered by
	// case id then model name.
	Results []EvaluationRecord `json:"results"`
}
