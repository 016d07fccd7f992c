package excel

import (
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"replipack/domain/core"
	"replipack/domain/verdict"
	"replipack/ports"
)

// FitSummaryExporter writes the per-condition fit results to an Excel
// workbook for offline inspection. The CSV in the run directory stays the
// canonical artefact.
type FitSummaryExporter struct{}

// NewFitSummaryExporter creates the exporter.
func NewFitSummaryExporter() *FitSummaryExporter {
	return &FitSummaryExporter{}
}

const sheetName = "fit_summary"

// ExportFitSummary writes one row per condition with its metrics and
// check outcomes.
func (e *FitSummaryExporter) ExportFitSummary(_ context.Context, path string, results []verdict.FitResult) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return core.NewWriteError(path, err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	header := []interface{}{"condition", "role", "passed", "anomaly"}
	metricKeys := collectMetricKeys(results)
	for _, k := range metricKeys {
		header = append(header, k)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return core.NewWriteError(path, err)
	}

	for i, r := range results {
		row := []interface{}{
			r.Condition.String(),
			string(r.Role),
			r.Passed(),
			r.Anomaly,
		}
		for _, k := range metricKeys {
			if v, ok := r.Metrics[k]; ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return core.NewWriteError(path, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return core.NewWriteError(path, err)
	}
	return nil
}

// collectMetricKeys gathers the union of metric names in stable order so
// every row shares one column layout.
func collectMetricKeys(results []verdict.FitResult) []string {
	seen := map[string]bool{}
	for _, r := range results {
		for k := range r.Metrics {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ ports.TableExporter = (*FitSummaryExporter)(nil)
