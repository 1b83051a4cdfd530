package application

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidtalk/tutorbench/internal/domain"
)

func sampleRecords() []domain.EvaluationRecord {
	return []domain.EvaluationRecord{
		{
			Model:            "Qwen-Max",
			TestCaseID:       "case_001",
			TestCaseCategory: "basic_conversation",
			TestCaseAgeLevel: 4,
			Content:          "Hello! 你好! Nice to meet you!",
			Latency:          1.23,
			TTFB:             0.34,
			Tokens:           domain.TokenUsage{PromptTokens: 120, CompletionTokens: 45, TotalTokens: 165},
			Scores: map[domain.Dimension]domain.SubScores{
				domain.DimensionLanguageAbility: {"grammar": 8.0, "vocabulary": 9.0},
			},
			TotalScore:     8.5,
			UsedDimensions: []domain.Dimension{domain.DimensionLanguageAbility},
			Timestamp:      time.Now().Truncate(time.Second),
		},
		{
			Model:      "GLM-4",
			TestCaseID: "case_001",
			Err:        "request timed out",
			Scores:     map[domain.Dimension]domain.SubScores{},
			Timestamp:  time.Now().Truncate(time.Second),
		},
	}
}

func TestResultsRoundTrip(t *testing.T) {
	suite := testSuite()
	doc := BuildDocument(suite, sampleRecords())

	assert.NotEmpty(t, doc.RunID)
	assert.Equal(t, "3-6", doc.TestConfig.AgeRange)
	assert.Equal(t, 2, doc.TestConfig.TotalCases)

	path := filepath.Join(t.TempDir(), "results", "test_results.json")
	require.NoError(t, SaveResults(doc, path))

	loaded, err := LoadResults(path)
	require.NoError(t, err)

	assert.Equal(t, doc.RunID, loaded.RunID)
	assert.Equal(t, doc.TestConfig, loaded.TestConfig)
	require.Len(t, loaded.Results, 2)

	// Every field survives the round trip, multibyte content included.
	original := doc.Results[0]
	restored := loaded.Results[0]
	assert.Equal(t, original.Model, restored.Model)
	assert.Equal(t, original.Content, restored.Content)
	assert.Equal(t, original.Scores, restored.Scores)
	assert.Equal(t, original.TotalScore, restored.TotalScore)
	assert.Equal(t, original.UsedDimensions, restored.UsedDimensions)
	assert.Equal(t, original.Tokens, restored.Tokens)

	assert.True(t, loaded.Results[1].IsError())
	assert.Equal(t, "request timed out", loaded.Results[1].Err)
}

func TestSaveResultsWritesReadableJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_results.json")
	require.NoError(t, SaveResults(BuildDocument(testSuite(), sampleRecords()), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	// Pretty-printed, with CJK preserved rather than escaped.
	assert.Contains(t, content, "  \"results\"")
	assert.Contains(t, content, "你好")
	assert.True(t, strings.Contains(content, "request timed out"))
}

func TestLoadResultsMissingFile(t *testing.T) {
	_, err := LoadResults(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadResultsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadResults(path)
	require.Error(t, err)
}
