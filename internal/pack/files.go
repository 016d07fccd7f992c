package pack

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"replipack/domain/core"
	"replipack/domain/stats"
)

// Fixed artefact names. Verification keys off these; renaming any of them is
// a breaking change for every published pack.
const (
	FileManifest       = "manifest.csv"
	FileHashes         = "hashes.txt"
	FileRunManifest    = "run_manifest.json"
	FileVerdictDetails = "verdict_details.json"
	FileReference      = "reference_metrics.json"
	DirTables          = "tables"
	FileFitSummary     = "tables/fit_summary_by_condition.csv"

	lockFile = ".replipack.lock"
)

// RequiredFiles are the four files the completeness gate demands before any
// PASS/FAIL logic may run.
func RequiredFiles() []string {
	return []string{FileVerdictDetails, FileRunManifest, FileHashes, FileFitSummary}
}

// ReadLevelCSV loads one raw level artefact: a single "C" column of floats.
func ReadLevelCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewReadError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, core.NewReadError(path, err)
	}
	if len(rows) < 2 || len(rows[0]) != 1 || rows[0][0] != "C" {
		return nil, core.NewReadError(path, fmt.Errorf("not a raw level file"))
	}

	values := make([]float64, 0, len(rows)-1)
	for _, row := range rows[1:] {
		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, core.NewReadError(path, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return core.NewWriteError(path, err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return core.NewWriteError(path, err)
	}
	return nil
}

// ReadJSON reads a JSON file into v.
func ReadJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.NewReadError(path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return core.NewReadError(path, err)
	}
	return nil
}

var fitSummaryHeader = []string{
	"condition", "replicates",
	"beta_origin_mean", "beta_origin_std",
	"r2_origin_mean", "r2_origin_std",
	"slope_mean", "slope_std",
	"intercept_mean", "intercept_std",
	"r2_mean", "r2_std",
}

// WriteFitSummaryCSV writes the per-condition fit table in suite order.
func WriteFitSummaryCSV(dir string, rows []stats.ConditionSummary) error {
	if err := os.MkdirAll(filepath.Join(dir, DirTables), 0o755); err != nil {
		return core.NewWriteError(filepath.Join(dir, DirTables), err)
	}
	path := filepath.Join(dir, FileFitSummary)

	f, err := os.Create(path)
	if err != nil {
		return core.NewWriteError(path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(fitSummaryHeader); err != nil {
		return core.NewWriteError(path, err)
	}
	for _, row := range rows {
		rec := []string{
			row.Condition.String(),
			strconv.Itoa(row.Replicates),
			formatFloat(row.BetaOriginMean), formatFloat(row.BetaOriginStd),
			formatFloat(row.R2OriginMean), formatFloat(row.R2OriginStd),
			formatFloat(row.SlopeMean), formatFloat(row.SlopeStd),
			formatFloat(row.InterceptMean), formatFloat(row.InterceptStd),
			formatFloat(row.R2Mean), formatFloat(row.R2Std),
		}
		if err := w.Write(rec); err != nil {
			return core.NewWriteError(path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return core.NewWriteError(path, err)
	}
	return nil
}

// ReadFitSummaryCSV loads the recorded per-condition fit table.
func ReadFitSummaryCSV(path string) ([]stats.ConditionSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewReadError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, core.NewReadError(path, err)
	}
	if len(rows) < 2 || len(rows[0]) != len(fitSummaryHeader) {
		return nil, core.NewReadError(path, fmt.Errorf("malformed fit summary table"))
	}

	out := make([]stats.ConditionSummary, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if len(rec) != len(fitSummaryHeader) {
			return nil, core.NewReadError(path, fmt.Errorf("malformed fit summary row"))
		}
		reps, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, core.NewReadError(path, err)
		}
		vals := make([]float64, 10)
		for i := 0; i < 10; i++ {
			v, err := strconv.ParseFloat(rec[i+2], 64)
			if err != nil {
				return nil, core.NewReadError(path, err)
			}
			vals[i] = v
		}
		out = append(out, stats.ConditionSummary{
			Condition:      core.Condition(rec[0]),
			Replicates:     reps,
			BetaOriginMean: vals[0], BetaOriginStd: vals[1],
			R2OriginMean: vals[2], R2OriginStd: vals[3],
			SlopeMean: vals[4], SlopeStd: vals[5],
			InterceptMean: vals[6], InterceptStd: vals[7],
			R2Mean: vals[8], R2Std: vals[9],
		})
	}
	return out, nil
}

// formatFloat uses the fixed artefact precision so the tables are
// byte-stable across identical seeded runs.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 10, 64)
}
