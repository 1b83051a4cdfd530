package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/kidtalk/tutorbench/infrastructure/llm"
	"github.com/kidtalk/tutorbench/infrastructure/middleware"
	"github.com/kidtalk/tutorbench/infrastructure/report"
	"github.com/kidtalk/tutorbench/infrastructure/scoring"
	"github.com/kidtalk/tutorbench/internal/application"
	"github.com/kidtalk/tutorbench/internal/ports"
)

var (
	runModels    []string
	runCases     []string
	runOutput    string
	runConfigDir string
	runNoStream  bool
	runParallel  int
	runLexicon   string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark suite and generate reports",
		Long: `Run every selected test case against every selected model, score the
responses, persist the results document, and print the summary and
detailed reports.`,
		RunE: runCommandE,
	}

	cmd.Flags().StringSliceVar(&runModels, "models", nil, "Model config keys to test (default: all configured)")
	cmd.Flags().StringSliceVar(&runCases, "cases", nil, "Test case ids to run (default: all)")
	cmd.Flags().StringVar(&runOutput, "output", filepath.Join("results", "test_results.json"), "Results document output path")
	cmd.Flags().StringVar(&runConfigDir, "config-dir", "config", "Directory holding the run configuration files")
	cmd.Flags().BoolVar(&runNoStream, "no-stream", false, "Disable streaming responses (streaming measures first-token latency)")
	cmd.Flags().IntVar(&runParallel, "parallel", 1, "Number of (case, model) pairs to run concurrently")
	cmd.Flags().StringVar(&runLexicon, "lexicon", "", "YAML file overriding the scoring word lists")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	config := application.LoadRunConfig(runConfigDir, logger)
	if len(config.Suite.TestCases) == 0 {
		return fmt.Errorf("no test cases found in %s", runConfigDir)
	}

	lexicon := scoring.DefaultLexicon()
	if runLexicon != "" {
		loaded, err := scoring.LoadLexicon(runLexicon)
		if err != nil {
			return fmt.Errorf("load lexicon: %w", err)
		}
		lexicon = loaded
	}

	if len(config.Criteria.Dimensions) == 0 {
		logger.Warn("evaluation criteria empty, all total scores will be zero",
			"path", filepath.Join(runConfigDir, application.CriteriaConfigFile))
	}
	evaluator, err := scoring.NewEvaluator(config.Criteria, lexicon, scoring.DefaultConfig())
	if err != nil {
		return fmt.Errorf("build evaluator: %w", err)
	}

	collector := middleware.NewPrometheusMetrics(nil)
	clients := buildClients(config.Models, runModels, collector, logger)
	if len(clients) == 0 {
		return fmt.Errorf("no usable models: check api_key entries in %s", filepath.Join(runConfigDir, application.ModelsConfigFile))
	}

	runner := application.NewTestRunner(clients, evaluator, application.RunnerOptions{
		UseStream: !runNoStream,
		Parallel:  runParallel,
	}, logger)

	records, err := runner.RunAll(cmd.Context(), config.Suite, nil, runCases)
	if err != nil {
		return err
	}

	doc := application.BuildDocument(config.Suite, records)
	if err := application.SaveResults(doc, runOutput); err != nil {
		return err
	}
	logger.Info("results saved", "path", runOutput, "records", len(records))

	generator := report.NewGenerator(doc, report.NewExcelExporter(), logger)
	fmt.Fprintln(cmd.OutOrStdout(), generator.GenerateSummaryReport())
	fmt.Fprintln(cmd.OutOrStdout(), generator.GenerateDetailedReport())
	return generator.SaveReports(filepath.Dir(runOutput))
}

// buildClients constructs a client per selected model entry, skipping the
// entries that cannot be used (missing key, bad URL) with a warning so one
// misconfigured model never aborts the run.
func buildClients(config application.ModelsConfig, selected []string, collector ports.MetricsCollector, logger *slog.Logger) map[string]ports.ModelClient {
	keys := selected
	if len(keys) == 0 {
		keys = make([]string, 0, len(config.Models))
		for key := range config.Models {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}

	registry := llm.NewRegistry()
	clients := make(map[string]ports.ModelClient, len(keys))
	for _, key := range keys {
		entry, ok := config.Models[key]
		if !ok {
			logger.Warn("model not in configuration, skipping", "model", key)
			continue
		}
		if entry.APIKey == "" {
			logger.Warn("model has no api_key, skipping", "model", key, "name", entry.Name)
			continue
		}

		provider := llm.ProviderTag(entry.Provider)
		chain := []llm.Middleware{
			llm.MetricsMiddleware(provider, collector),
			llm.RetryMiddleware(3, time.Second, 30*time.Second),
		}
		if entry.RequestsPerSecond > 0 {
			chain = append(chain, llm.RateLimitMiddleware(rate.Limit(entry.RequestsPerSecond), 1))
		}

		client, err := llm.NewClient(llm.ClientConfig{
			Name:       entry.Name,
			Provider:   provider,
			APIKey:     entry.APIKey,
			Model:      entry.ModelID,
			BaseURL:    entry.BaseURL,
			Timeout:    entry.Timeout(),
			Middleware: chain,
		})
		if err != nil {
			logger.Warn("model client unavailable, skipping", "model", key, "name", entry.Name, "error", err)
			continue
		}
		if err := client.CheckConfig(); err != nil {
			logger.Warn("model configuration incomplete, skipping", "model", key, "name", entry.Name, "error", err)
			continue
		}
		if err := registry.Register(client); err != nil {
			logger.Warn("model name collides with an earlier entry, skipping", "model", key, "name", entry.Name, "error", err)
			continue
		}

		logger.Info("model initialized", "model", key, "name", entry.Name, "provider", entry.Provider)
		clients[key] = client
	}

	return clients
}
