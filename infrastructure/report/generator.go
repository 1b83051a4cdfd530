package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/kidtalk/tutorbench/internal/domain"
	"github.com/kidtalk/tutorbench/internal/ports"
)

// emptyResultsMessage is returned by both reports when there is nothing to
// aggregate.
const emptyResultsMessage = "No test results."

const sectionRule = "================================================================================"

// contentPreviewRunes bounds the response excerpt shown per record in the
// detailed report.
const contentPreviewRunes = 100

// placeholder marks a value no record supplied.
const placeholder = "-"

// subMetricDisplayNames renames raw sub-metric keys for report tables.
var subMetricDisplayNames = map[string]string{
	"latency_combined": "combined latency",
	"ttfb":             "first-token latency",
	"latency":          "total latency",
}

// dimensionDisplayNames maps dimension keys to their report headings.
var dimensionDisplayNames = map[domain.Dimension]string{
	domain.DimensionLanguageAbility:      "Language Ability",
	domain.DimensionTeachingAdaptability: "Teaching Adaptability",
	domain.DimensionResponsePerformance:  "Response Performance",
	domain.DimensionSafetyCompliance:     "Safety Compliance",
	domain.DimensionCostEfficiency:       "Cost Efficiency",
}

// Generator renders summary and detailed reports from a results document
// and persists the spreadsheet export through a RecordExporter.
type Generator struct {
	doc      domain.ResultsDocument
	exporter ports.RecordExporter
	logger   *slog.Logger
}

// NewGenerator creates a report generator for a results document. A nil
// exporter disables the spreadsheet export; SaveReports then degrades to a
// logged warning. A nil logger uses the default.
func NewGenerator(doc domain.ResultsDocument, exporter ports.RecordExporter, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{doc: doc, exporter: exporter, logger: logger}
}

// GenerateSummaryReport renders the per-model overview: success rates and
// means, one sub-table per scoring dimension, and a final ranking.
func (g *Generator) GenerateSummaryReport() string {
	if len(g.doc.Results) == 0 {
		return emptyResultsMessage
	}

	stats := foldRecords(g.doc.Results)
	models := sortedModels(stats)

	var b strings.Builder
	b.WriteString(sectionRule + "\n")
	b.WriteString("Children's English Tutor Agent - Model Benchmark Report\n")
	b.WriteString(sectionRule + "\n")
	fmt.Fprintf(&b, "Run time: %s\n", g.doc.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Test cases: %d\n\n", g.doc.TestConfig.TotalCases)

	g.writeOverallTable(&b, stats, models)
	g.writeDimensionTables(&b, stats, models)
	g.writeRanking(&b, stats, models)

	return b.String()
}

func (g *Generator) writeOverallTable(b *strings.Builder, stats map[string]*modelStats, models []string) {
	b.WriteString("Overall statistics:\n")

	table := tablewriter.NewWriter(b)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{
		"Model", "Success rate", "Mean score", "Mean latency (s)",
		"First-token latency (s)", "Succeeded", "Failed",
	})

	for _, model := range models {
		s := stats[model]
		table.Append([]string{
			model,
			fmt.Sprintf("%.1f%%", s.successRate()),
			fmt.Sprintf("%.2f", s.meanScore()),
			fmt.Sprintf("%.2f", s.meanLatency()),
			fmt.Sprintf("%.2f", s.meanTTFB()),
			strconv.Itoa(s.successCount),
			strconv.Itoa(s.errorCount),
		})
	}

	table.Render()
	b.WriteString("\n")
}

func (g *Generator) writeDimensionTables(b *strings.Builder, stats map[string]*modelStats, models []string) {
	b.WriteString(sectionRule + "\n")
	b.WriteString("Per-dimension scores\n")
	b.WriteString(sectionRule + "\n")

	for _, dimension := range domain.Dimensions() {
		fmt.Fprintf(b, "\n[%s]\n", dimensionDisplayNames[dimension])
		g.writeDimensionTable(b, stats, models, dimension)
	}
}

// dimensionMetric pairs a raw sub-metric key with its display name.
type dimensionMetric struct {
	key     string
	display string
}

func (g *Generator) writeDimensionTable(b *strings.Builder, stats map[string]*modelStats, models []string, dimension domain.Dimension) {
	prefix := string(dimension) + "_"

	// The column set is the union of sub-metrics observed for this
	// dimension across all models, sorted by display name.
	seen := make(map[string]struct{})
	var metrics []dimensionMetric
	for _, model := range models {
		for key := range stats[model].dimensionScores {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			name := strings.TrimPrefix(key, prefix)
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}

			display := name
			if renamed, ok := subMetricDisplayNames[name]; ok {
				display = renamed
			}
			metrics = append(metrics, dimensionMetric{key: name, display: display})
		}
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].display < metrics[j].display })

	headers := make([]string, 0, len(metrics)+2)
	headers = append(headers, "Model")
	for _, m := range metrics {
		headers = append(headers, m.display)
	}
	headers = append(headers, "Dimension average")

	table := tablewriter.NewWriter(b)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(headers)

	for _, model := range models {
		s := stats[model]
		row := make([]string, 0, len(headers))
		row = append(row, model)

		var dimMeans []float64
		for _, m := range metrics {
			values := s.dimensionScores[prefix+m.key]
			if len(values) == 0 {
				row = append(row, placeholder)
				continue
			}
			avg := mean(values)
			row = append(row, fmt.Sprintf("%.2f", avg))
			dimMeans = append(dimMeans, avg)
		}

		if len(dimMeans) == 0 {
			row = append(row, placeholder)
		} else {
			row = append(row, fmt.Sprintf("%.2f", mean(dimMeans)))
		}
		table.Append(row)
	}

	table.Render()
}

func (g *Generator) writeRanking(b *strings.Builder, stats map[string]*modelStats, models []string) {
	b.WriteString("\n" + sectionRule + "\n")
	b.WriteString("Model ranking\n")
	b.WriteString(sectionRule + "\n")

	type ranked struct {
		model string
		stats *modelStats
	}

	// Models with no successful records have no mean score and are left
	// out of the ranking.
	var rankings []ranked
	for _, model := range models {
		if len(stats[model].totalScores) == 0 {
			continue
		}
		rankings = append(rankings, ranked{model: model, stats: stats[model]})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		si, sj := rankings[i].stats.meanScore(), rankings[j].stats.meanScore()
		if si != sj {
			return si > sj
		}
		return rankings[i].model < rankings[j].model
	})

	for i, r := range rankings {
		fmt.Fprintf(b, "%d. %s\n", i+1, r.model)
		fmt.Fprintf(b, "   Mean score: %.2f/10\n", r.stats.meanScore())
		fmt.Fprintf(b, "   Mean latency: %.2fs\n", r.stats.meanLatency())
		fmt.Fprintf(b, "   First-token latency: %.2fs\n\n", r.stats.meanTTFB())
	}
}

// GenerateDetailedReport renders per-case results: for every test case,
// each model's score, latency, and a content preview, or its error.
func (g *Generator) GenerateDetailedReport() string {
	if len(g.doc.Results) == 0 {
		return emptyResultsMessage
	}

	byCase := make(map[string][]domain.EvaluationRecord)
	for _, record := range g.doc.Results {
		byCase[record.TestCaseID] = append(byCase[record.TestCaseID], record)
	}

	caseIDs := make([]string, 0, len(byCase))
	for id := range byCase {
		caseIDs = append(caseIDs, id)
	}
	sort.Strings(caseIDs)

	var b strings.Builder
	b.WriteString(sectionRule + "\n")
	b.WriteString("Detailed test results\n")
	b.WriteString(sectionRule + "\n\n")

	for _, caseID := range caseIDs {
		records := byCase[caseID]
		// Model order inside a case is name-sorted so reports are
		// reproducible regardless of completion order.
		sort.Slice(records, func(i, j int) bool { return records[i].Model < records[j].Model })

		category, age := caseHeader(records)
		fmt.Fprintf(&b, "Test case: %s\n", caseID)
		fmt.Fprintf(&b, "  Category: %s\n", category)
		fmt.Fprintf(&b, "  Age: %s\n\n", age)

		for _, record := range records {
			fmt.Fprintf(&b, "  [%s]\n", record.Model)
			if record.IsError() {
				fmt.Fprintf(&b, "    Error: %s\n", record.Err)
			} else {
				fmt.Fprintf(&b, "    Score: %.2f/10\n", record.TotalScore)
				fmt.Fprintf(&b, "    Latency: %.2fs\n", record.Latency)
				fmt.Fprintf(&b, "    Response: %s...\n", truncateRunes(record.Content, contentPreviewRunes))
			}
			b.WriteString("\n")
		}

		b.WriteString(strings.Repeat("-", 80) + "\n\n")
	}

	return b.String()
}

// SaveReports persists the spreadsheet export into outputDir. A missing
// exporter or a failed export degrades to a warning; the run itself never
// fails over reporting.
func (g *Generator) SaveReports(outputDir string) error {
	if len(g.doc.Results) == 0 {
		return nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if g.exporter == nil {
		g.logger.Warn("spreadsheet exporter unavailable, skipping export")
		return nil
	}

	path := filepath.Join(outputDir, "test_results.xlsx")
	if err := g.exporter.Export(g.doc.Results, path); err != nil {
		g.logger.Warn("spreadsheet export failed", "path", path, "error", err)
		return nil
	}
	g.logger.Info("spreadsheet export saved", "path", path)
	return nil
}

// caseHeader picks the case category and age from the first record that
// carries them. Failure records store neither, so a case where the
// name-sorted first model failed still gets a real header; when every
// record failed the fields render as the placeholder.
func caseHeader(records []domain.EvaluationRecord) (category, age string) {
	for _, record := range records {
		if record.IsError() {
			continue
		}
		return record.TestCaseCategory, strconv.Itoa(record.TestCaseAgeLevel)
	}
	return placeholder, placeholder
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
