package ports

import (
	"context"

	"replipack/domain/verdict"
)

// TableExporter renders the per-condition fit summary to an external table
// format (the CSV in the run directory remains the canonical artefact).
type TableExporter interface {
	ExportFitSummary(ctx context.Context, path string, results []verdict.FitResult) error
}
