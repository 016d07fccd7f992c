package ports

import (
	"context"

	"replipack/domain/artefact"
	"replipack/domain/core"
	"replipack/domain/verdict"
)

// RunRepository persists run manifests and verdicts for cross-run history.
// The pipeline itself never depends on it: runs are fully file-backed and a
// missing repository only disables the ledger.
type RunRepository interface {
	RecordRun(ctx context.Context, manifest *artefact.RunManifest) error
	RecordVerdict(ctx context.Context, runID core.RunID, v verdict.Verdict) error
	GetRun(ctx context.Context, runID core.RunID) (*artefact.RunManifest, error)
	ListRuns(ctx context.Context, limit int) ([]*artefact.RunManifest, error)
}
