package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kidtalk/tutorbench/internal/domain"
	"github.com/kidtalk/tutorbench/internal/ports"
)

// tutorSystemPrompt is the fixed English-tutor persona every model is
// tested under.
const tutorSystemPrompt = `You are a professional English speaking tutor for children aged 3 to 6.

Your traits:
1. Use simple, fun, child-friendly language
2. Keep a warm and friendly tone, full of patience and encouragement
3. Make learning fun through stories, games, and interaction
4. Adjust the teaching difficulty to the child's age and level
5. Correct mistakes gently, encouragement first
6. Keep all content appropriate for children aged 3 to 6

Reply in English, but you may use a little simple Chinese to help understanding.`

// Default sampling parameters for every test request, matching a realtime
// tutoring conversation.
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
)

// RunnerOptions tune how the suite is executed.
type RunnerOptions struct {
	// UseStream requests streaming responses so first-token latency can be
	// measured. On by default in the CLI.
	UseStream bool

	// Parallel bounds the number of (case, model) pairs in flight at once.
	// Values below 1 mean sequential execution, the reference behavior.
	Parallel int
}

// TestRunner drives every selected test case through every selected model
// and evaluates the responses. Each (case, model) pair produces exactly one
// EvaluationRecord; records are independent, so pairs can run concurrently
// and results are sorted afterwards for deterministic output.
type TestRunner struct {
	clients   map[string]ports.ModelClient
	evaluator ports.Evaluator
	options   RunnerOptions
	logger    *slog.Logger
}

// NewTestRunner creates a runner over the initialized clients, keyed by
// config key. A nil logger uses the default.
func NewTestRunner(clients map[string]ports.ModelClient, evaluator ports.Evaluator, options RunnerOptions, logger *slog.Logger) *TestRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &TestRunner{
		clients:   clients,
		evaluator: evaluator,
		options:   options,
		logger:    logger,
	}
}

// BuildSystemPrompt returns the tutor persona, extended with the case's
// scene description when it has one.
func BuildSystemPrompt(testCase domain.TestCase) string {
	if testCase.Context == "" {
		return tutorSystemPrompt
	}
	return tutorSystemPrompt + "\n\nCurrent scene: " + testCase.Context
}

// RunTestCase executes one (case, model) pair. A model key without an
// initialized client yields a failure record rather than an error so the
// rest of the run proceeds.
func (r *TestRunner) RunTestCase(ctx context.Context, testCase domain.TestCase, modelKey string) domain.EvaluationRecord {
	client, ok := r.clients[modelKey]
	if !ok {
		response := domain.FailureResponse(fmt.Sprintf("model %q is not initialized", modelKey), 0)
		return r.evaluator.EvaluateResponse(ctx, testCase, response, modelKey)
	}

	temperature := defaultTemperature
	request := domain.ChatRequest{
		System:      BuildSystemPrompt(testCase),
		UserInput:   testCase.UserInput,
		Temperature: &temperature,
		MaxTokens:   defaultMaxTokens,
		Stream:      r.options.UseStream,
	}

	response := client.Chat(ctx, request)
	return r.evaluator.EvaluateResponse(ctx, testCase, response, client.Name())
}

// RunAll executes the cross product of the selected cases and models.
// Empty selections mean "all". Results are returned sorted by case id then
// model name regardless of completion order.
func (r *TestRunner) RunAll(ctx context.Context, suite domain.TestSuite, modelKeys, caseIDs []string) ([]domain.EvaluationRecord, error) {
	if len(modelKeys) == 0 {
		modelKeys = r.clientKeys()
	}
	cases := filterCases(suite.TestCases, caseIDs)

	type pair struct {
		testCase domain.TestCase
		modelKey string
	}
	pairs := make([]pair, 0, len(cases)*len(modelKeys))
	for _, testCase := range cases {
		for _, modelKey := range modelKeys {
			pairs = append(pairs, pair{testCase: testCase, modelKey: modelKey})
		}
	}

	r.logger.Info("starting benchmark run",
		"cases", len(cases), "models", len(modelKeys), "total", len(pairs))

	limit := r.options.Parallel
	if limit < 1 {
		limit = 1
	}

	records := make([]domain.EvaluationRecord, len(pairs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, p := range pairs {
		group.Go(func() error {
			record := r.RunTestCase(groupCtx, p.testCase, p.modelKey)
			records[i] = record

			if record.IsError() {
				r.logger.Warn("test case failed",
					"case", p.testCase.ID, "model", record.Model, "error", record.Err)
			} else {
				r.logger.Info("test case evaluated",
					"case", p.testCase.ID, "model", record.Model,
					"score", record.TotalScore, "latency", record.Latency)
			}
			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("run canceled: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].TestCaseID != records[j].TestCaseID {
			return records[i].TestCaseID < records[j].TestCaseID
		}
		return records[i].Model < records[j].Model
	})

	return records, nil
}

func (r *TestRunner) clientKeys() []string {
	keys := make([]string, 0, len(r.clients))
	for key := range r.clients {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// filterCases keeps only the cases whose ids appear in ids; an empty filter
// keeps everything, in suite order.
func filterCases(cases []domain.TestCase, ids []string) []domain.TestCase {
	if len(ids) == 0 {
		return cases
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	filtered := make([]domain.TestCase, 0, len(ids))
	for _, testCase := range cases {
		if _, ok := wanted[testCase.ID]; ok {
			filtered = append(filtered, testCase)
		}
	}
	return filtered
}
