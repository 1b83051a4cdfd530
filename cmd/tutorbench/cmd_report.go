package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kidtalk/tutorbench/infrastructure/report"
	"github.com/kidtalk/tutorbench/internal/application"
)

var reportResults string

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Regenerate reports from a saved results document",
		Long: `Rebuild the summary and detailed reports, and the spreadsheet export,
from a previously saved results document without calling any model.`,
		RunE: reportCommandE,
	}

	cmd.Flags().StringVar(&reportResults, "results", filepath.Join("results", "test_results.json"), "Path of the saved results document")

	return cmd
}

func reportCommandE(cmd *cobra.Command, args []string) error {
	doc, err := application.LoadResults(reportResults)
	if err != nil {
		return err
	}

	generator := report.NewGenerator(doc, report.NewExcelExporter(), slog.Default())
	fmt.Fprintln(cmd.OutOrStdout(), generator.GenerateSummaryReport())
	fmt.Fprintln(cmd.OutOrStdout(), generator.GenerateDetailedReport())
	return generator.SaveReports(filepath.Dir(reportResults))
}
