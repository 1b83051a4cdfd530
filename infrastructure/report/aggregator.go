// Package report turns collected evaluation records into human-readable
// comparison reports and a spreadsheet export. All output is derived purely
// from a persisted results document, so reporting can run disconnected from
// model invocation.
package report

import (
	"sort"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// modelStats accumulates the per-model aggregates one linear pass over the
// records produces. Error records contribute only to the error count.
type modelStats struct {
	totalScores []float64
	latencies   []float64
	ttfbs       []float64

	successCount int
	errorCount   int

	// dimensionScores collects sub-metric values keyed
	// "{dimension}_{submetric}".
	dimensionScores map[string][]float64
}

func newModelStats() *modelStats {
	return &modelStats{dimensionScores: make(map[string][]float64)}
}

// meanScore returns the mean total score across successful records.
func (s *modelStats) meanScore() float64 { return mean(s.totalScores) }

// meanLatency returns the mean latency across successful records.
func (s *modelStats) meanLatency() float64 { return mean(s.latencies) }

// meanTTFB returns the mean first-token latency, falling back to the mean
// total latency when no TTFB samples were recorded.
func (s *modelStats) meanTTFB() float64 {
	if len(s.ttfbs) == 0 {
		return s.meanLatency()
	}
	return mean(s.ttfbs)
}

// successRate returns the percentage of attempts that succeeded, 0 when the
// model was never attempted.
func (s *modelStats) successRate() float64 {
	total := s.successCount + s.errorCount
	if total == 0 {
		return 0
	}
	return float64(s.successCount) / float64(total) * 100
}

// foldRecords groups records by model into running statistics. Records are
// never mutated; arrival order does not matter because grouping uses only
// the model name.
func foldRecords(records []domain.EvaluationRecord) map[string]*modelStats {
	stats := make(map[string]*modelStats)

	for _, record := range records {
		s, ok := stats[record.Model]
		if !ok {
			s = newModelStats()
			stats[record.Model] = s
		}

		if record.IsError() {
			s.errorCount++
			continue
		}

		s.successCount++
		s.totalScores = append(s.totalScores, record.TotalScore)
		s.latencies = append(s.latencies, record.Latency)
		if record.TTFB > 0 {
			s.ttfbs = append(s.ttfbs, record.TTFB)
		}

		for dimension, subScores := range record.Scores {
			for key, value := range subScores {
				metric := string(dimension) + "_" + key
				s.dimensionScores[metric] = append(s.dimensionScores[metric], value)
			}
		}
	}

	return stats
}

// sortedModels returns the model names in ascending order.
func sortedModels(stats map[string]*modelStats) []string {
	models := make([]string, 0, len(stats))
	for model := range stats {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
