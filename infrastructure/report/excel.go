package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/kidtalk/tutorbench/internal/domain"
	"github.com/kidtalk/tutorbench/internal/ports"
)

// excelSheetName is the worksheet holding the flattened records.
const excelSheetName = "Results"

// excelPreviewRunes bounds the response excerpt stored per record.
const excelPreviewRunes = 200

// Compile-time check that ExcelExporter satisfies the exporter port.
var _ ports.RecordExporter = (*ExcelExporter)(nil)

// ExcelExporter writes evaluation records to an xlsx workbook, one row per
// record with every observed dimension sub-metric as its own column.
type ExcelExporter struct{}

// NewExcelExporter creates an xlsx record exporter.
func NewExcelExporter() *ExcelExporter { return &ExcelExporter{} }

// Export writes the records to path. The column set is the fixed record
// fields plus the sorted union of "{dimension}_{submetric}" keys across all
// records; an error column is appended when any record failed.
func (e *ExcelExporter) Export(records []domain.EvaluationRecord, path string) error {
	metricColumns, hasErrors := collectColumns(records)

	headers := []string{"Model", "Test Case ID", "Category", "Age", "Total Score", "Latency (s)"}
	headers = append(headers, metricColumns...)
	headers = append(headers, "Response")
	if hasErrors {
		headers = append(headers, "Error")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, toCells(headers)); err != nil {
		return err
	}

	for i, record := range records {
		cells := []any{
			record.Model,
			record.TestCaseID,
			record.TestCaseCategory,
			record.TestCaseAgeLevel,
			record.TotalScore,
			record.Latency,
		}

		flat := flattenScores(record)
		for _, column := range metricColumns {
			if value, ok := flat[column]; ok {
				cells = append(cells, value)
			} else {
				cells = append(cells, "")
			}
		}

		cells = append(cells, truncateRunes(record.Content, excelPreviewRunes))
		if hasErrors {
			cells = append(cells, record.Err)
		}

		if err := writeRow(f, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// collectColumns returns the sorted union of dimension sub-metric keys and
// whether any record carries an error.
func collectColumns(records []domain.EvaluationRecord) ([]string, bool) {
	seen := make(map[string]struct{})
	hasErrors := false

	for _, record := range records {
		if record.IsError() {
			hasErrors = true
		}
		for column := range flattenScores(record) {
			seen[column] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for column := range seen {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns, hasErrors
}

func flattenScores(record domain.EvaluationRecord) map[string]float64 {
	flat := make(map[string]float64)
	for dimension, subScores := range record.Scores {
		for key, value := range subScores {
			flat[string(dimension)+"_"+key] = value
		}
	}
	return flat
}

func writeRow(f *excelize.File, row int, cells []any) error {
	for i, cell := range cells {
		name, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := f.SetCellValue(excelSheetName, name, cell); err != nil {
			return fmt.Errorf("set cell %s: %w", name, err)
		}
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
