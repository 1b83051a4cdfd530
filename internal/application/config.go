// Package application orchestrates benchmark runs: it loads run
// configuration, drives test cases through model clients and the evaluator,
// and persists the results document.
package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// Config file names expected inside the config directory.
const (
	ModelsConfigFile   = "models_config.json"
	TestCasesFile      = "test_cases.json"
	CriteriaConfigFile = "evaluation_criteria.json"
)

var validate = validator.New()

// ModelEntry configures one model backend. Entries are keyed by a short
// config key ("qwen", "deepseek") that the --models flag selects by; the
// Name is the display name used in records and reports.
type ModelEntry struct {
	// Name is the display name ("Qwen-Max").
	Name string `json:"name" validate:"required"`

	// Provider selects the client implementation: openai_compatible,
	// anthropic, or google.
	Provider string `json:"provider" validate:"required,oneof=openai_compatible anthropic google"`

	// APIKey authenticates requests. An empty key leaves the model
	// configured but unusable; the runner skips it with a warning.
	APIKey string `json:"api_key"`

	// ModelID is the provider-side model identifier.
	ModelID string `json:"model_id" validate:"required"`

	// BaseURL overrides the provider default endpoint.
	BaseURL string `json:"base_url"`

	// TimeoutSeconds bounds each request; zero uses the client default.
	TimeoutSeconds int `json:"timeout_seconds" validate:"min=0"`

	// RequestsPerSecond enables client-side rate limiting when positive.
	RequestsPerSecond float64 `json:"requests_per_second" validate:"min=0"`
}

// ModelsConfig is the models_config.json document.
type ModelsConfig struct {
	Models map[string]ModelEntry `json:"models" validate:"dive"`
}

// RunConfig bundles everything a benchmark run loads from disk.
type RunConfig struct {
	Models   ModelsConfig
	Suite    domain.TestSuite
	Criteria domain.EvaluationCriteria
}

// Timeout returns the entry's request timeout as a duration.
func (m ModelEntry) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// LoadRunConfig reads the three config documents from configDir. A missing
// or malformed file is logged and leaves the corresponding section empty
// rather than failing the run: an empty model set or criteria degrades to
// an empty report, never a crash.
func LoadRunConfig(configDir string, logger *slog.Logger) RunConfig {
	if logger == nil {
		logger = slog.Default()
	}

	var config RunConfig

	if err := loadJSONConfig(filepath.Join(configDir, ModelsConfigFile), &config.Models); err != nil {
		logger.Warn("models config unavailable", "error", err)
		config.Models = ModelsConfig{}
	}
	if err := loadJSONConfig(filepath.Join(configDir, TestCasesFile), &config.Suite); err != nil {
		logger.Warn("test cases unavailable", "error", err)
		config.Suite = domain.TestSuite{}
	}
	if err := loadJSONConfig(filepath.Join(configDir, CriteriaConfigFile), &config.Criteria); err != nil {
		logger.Warn("evaluation criteria unavailable", "error", err)
		config.Criteria = domain.EvaluationCriteria{}
	}

	return config
}

// loadJSONConfig strictly decodes a JSON document into target and validates
// the result. Unknown fields are rejected so a typo in a config key fails
// loudly instead of silently applying defaults.
func loadJSONConfig(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	return nil
}
