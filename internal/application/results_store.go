package application

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// BuildDocument assembles the persisted results document for one completed
// run. TotalCases counts suite cases, not records.
func BuildDocument(suite domain.TestSuite, records []domain.EvaluationRecord) domain.ResultsDocument {
	return domain.ResultsDocument{
		RunID:     uuid.NewString(),
		Timestamp: time.Now(),
		TestConfig: domain.TestConfig{
			AgeRange:   suite.AgeRange,
			TotalCases: len(suite.TestCases),
		},
		Results: records,
	}
}

// SaveResults writes the document as pretty-printed UTF-8 JSON, creating
// the output directory if needed.
func SaveResults(doc domain.ResultsDocument, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// LoadResults reads a previously saved results document, enabling
// report-only mode to run from the file alone.
func LoadResults(path string) (domain.ResultsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ResultsDocument{}, fmt.Errorf("read results: %w", err)
	}

	var doc domain.ResultsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.ResultsDocument{}, fmt.Errorf("parse results: %w", err)
	}
	return doc, nil
}
