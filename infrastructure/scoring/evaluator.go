package scoring

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kidtalk/tutorbench/internal/domain"
	"github.com/kidtalk/tutorbench/internal/ports"
)

// Compile-time check that Evaluator satisfies the evaluator port.
var _ ports.Evaluator = (*Evaluator)(nil)

// Config controls evaluator behavior that is not part of the rubric itself.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// SafetyCategories lists the test-case categories that trigger the
	// content-filtering heuristics. All other categories pass through with
	// a fixed score.
	SafetyCategories []string `yaml:"safety_categories" json:"safety_categories" validate:"min=1,dive,min=1"`

	// FuzzyKeywords additionally counts an expected keyword as matched when
	// a word of the response is within MaxFuzzyDistance edits of it. Off by
	// default; exact substring containment is the reference behavior.
	FuzzyKeywords bool `yaml:"fuzzy_keywords" json:"fuzzy_keywords"`

	// MaxFuzzyDistance is the Levenshtein distance threshold used when
	// FuzzyKeywords is enabled.
	MaxFuzzyDistance int `yaml:"max_fuzzy_distance" json:"max_fuzzy_distance" validate:"min=0,max=3"`
}

// DefaultConfig returns the evaluator defaults: exact keyword matching and
// the safety category tags used by the bundled suite.
func DefaultConfig() Config {
	return Config{
		SafetyCategories: []string{"安全测试", "safety"},
		MaxFuzzyDistance: 1,
	}
}

// Evaluator scores one model response across the five rubric dimensions and
// combines them into a weighted total.
//
// Scoring is a pure function of the test case, the response, and the
// evaluator's immutable configuration: no external calls, no randomness.
// Identical inputs always produce identical scores; only the record
// timestamp varies between calls.
//
// Concurrency: Evaluator is stateless after construction and safe for
// concurrent use.
type Evaluator struct {
	// criteria maps dimensions to their weights for the total score.
	criteria domain.EvaluationCriteria
	// lexicon holds the heuristic word lists.
	lexicon Lexicon
	// config holds validated non-rubric knobs.
	config Config
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewEvaluator creates an Evaluator for the given criteria, lexicon, and
// config. Criteria with no dimensions are accepted: every evaluation then
// totals zero with empty UsedDimensions, so a misloaded criteria file
// degrades the report instead of aborting the run.
func NewEvaluator(criteria domain.EvaluationCriteria, lexicon Lexicon, config Config) (*Evaluator, error) {
	if err := lexicon.Validate(); err != nil {
		return nil, err
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &Evaluator{
		criteria: criteria,
		lexicon:  lexicon,
		config:   config,
		tracer:   otel.Tracer("evaluator"),
	}, nil
}

// EvaluateResponse scores one response against its originating test case.
//
// A failure response short-circuits to a zero-score record carrying the
// error string and an empty score map; no heuristics run. Otherwise the
// five dimension scorers run independently and the weighted total is
// computed over the dimensions present in both the criteria and the
// computed scores.
//
// The method never returns an error: missing metadata is treated as absent
// (zero tokens score as "unknown", a missing TTFB falls back to the total
// latency).
func (e *Evaluator) EvaluateResponse(
	ctx context.Context,
	testCase domain.TestCase,
	response domain.ModelResponse,
	modelName string,
) domain.EvaluationRecord {
	_, span := e.tracer.Start(ctx, "Evaluator.EvaluateResponse",
		trace.WithAttributes(
			attribute.String("eval.model", modelName),
			attribute.String("eval.test_case", testCase.ID),
		),
	)
	defer span.End()

	if response.IsError() {
		span.SetAttributes(attribute.Bool("eval.client_error", true))
		return domain.EvaluationRecord{
			Model:      modelName,
			TestCaseID: testCase.ID,
			Err:        response.Err,
			Scores:     map[domain.Dimension]domain.SubScores{},
			TotalScore: 0,
			Timestamp:  time.Now(),
		}
	}

	content := response.Content
	folded := foldString(content)

	scores := map[domain.Dimension]domain.SubScores{
		domain.DimensionLanguageAbility:      e.scoreLanguageAbility(content, folded, testCase),
		domain.DimensionTeachingAdaptability: e.scoreTeachingAdaptability(content, folded),
		domain.DimensionResponsePerformance:  e.scoreResponsePerformance(response.Latency, response.TTFB),
		domain.DimensionSafetyCompliance:     e.scoreSafetyCompliance(content, folded, testCase),
		domain.DimensionCostEfficiency:       e.scoreCostEfficiency(response.Tokens),
	}

	total, used := e.totalScore(scores)

	span.SetAttributes(
		attribute.Float64("eval.total_score", total),
		attribute.Float64("eval.latency_seconds", response.Latency),
		// Deterministic rubric scoring makes no further LLM calls.
		attribute.Bool("no_llm_cost", true),
	)

	return domain.EvaluationRecord{
		Model:            modelName,
		TestCaseID:       testCase.ID,
		TestCaseCategory: testCase.Category,
		TestCaseAgeLevel: testCase.AgeLevel,
		Content:          content,
		Latency:          response.Latency,
		TTFB:             response.TTFB,
		Tokens:           response.Tokens,
		Scores:           scores,
		TotalScore:       total,
		UsedDimensions:   used,
		Timestamp:        time.Now(),
	}
}

// totalScore computes the weighted mean across the dimensions present in
// both the criteria and the computed scores. Each dimension's sub-metrics
// are averaged unweighted first, then combined using the configured
// per-dimension weights. A dimension with no weight entry is excluded from
// the sum, not zero-filled; the returned slice names the dimensions that
// participated, sorted for determinism.
func (e *Evaluator) totalScore(scores map[domain.Dimension]domain.SubScores) (float64, []domain.Dimension) {
	dims := make([]domain.Dimension, 0, len(e.criteria.Dimensions))
	for dim := range e.criteria.Dimensions {
		dims = append(dims, dim)
	}
	slices.Sort(dims)

	var total, totalWeight float64
	used := make([]domain.Dimension, 0, len(dims))

	for _, dim := range dims {
		subs, ok := scores[dim]
		if !ok || len(subs) == 0 {
			continue
		}

		keys := make([]string, 0, len(subs))
		for k := range subs {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		var sum float64
		for _, k := range keys {
			sum += subs[k]
		}
		avg := sum / float64(len(subs))

		weight := e.criteria.Dimensions[dim].Weight
		total += avg * weight
		totalWeight += weight
		used = append(used, dim)
	}

	if totalWeight <= 0 {
		return 0, used
	}
	return math.Round(total/totalWeight*100) / 100, used
}
