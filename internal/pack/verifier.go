package pack

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"replipack/domain/artefact"
	"replipack/domain/stats"
	"replipack/domain/verdict"
	"replipack/internal/generator"
	"replipack/ports"
)

// VerdictDetails is the verdict_details.json payload: the verdict tag, the
// thresholds that were applied, and the full fit-result set behind it.
type VerdictDetails struct {
	Status     verdict.Status      `json:"status"`
	Reason     string              `json:"reason,omitempty"`
	Thresholds VerdictThresholds   `json:"thresholds"`
	Results    []verdict.FitResult `json:"results"`
}

// VerdictThresholds records every tolerance the classification used.
type VerdictThresholds struct {
	TolF            float64                      `json:"tol_f"`
	TolMean         float64                      `json:"tol_mean"`
	TolShift        float64                      `json:"tol_shift"`
	RefTol          artefact.ReferenceTolerances `json:"reference_tolerances"`
	NegControlR2Max float64                      `json:"neg_control_r2_max"`
}

// NewVerdictDetails captures a verdict together with the thresholds from the
// run configuration.
func NewVerdictDetails(cfg artefact.RunConfig, v verdict.Verdict) VerdictDetails {
	return VerdictDetails{
		Status: v.Status,
		Reason: v.Reason,
		Thresholds: VerdictThresholds{
			TolF:            cfg.TolF,
			TolMean:         cfg.TolMean,
			TolShift:        cfg.TolShift,
			RefTol:          cfg.RefTol,
			NegControlR2Max: cfg.Conditions.NegControlR2Max,
		},
		Results: v.Results,
	}
}

// Verifier re-derives a run's verdict from disk: completeness gate, hash
// round-trip against the manifest, statistical checks on the loaded level
// data, and the condition suite regenerated from the recorded seed.
type Verifier struct {
	rng    ports.RNGPort
	logger *zap.Logger
}

// NewVerifier creates a verification engine.
func NewVerifier(rng ports.RNGPort, logger *zap.Logger) *Verifier {
	return &Verifier{rng: rng, logger: logger}
}

// Verify classifies the run directory. It always terminates with exactly one
// of the three verdicts; hard errors only occur for lower-level failures the
// verdict model cannot express (e.g. an unreadable working directory).
func (v *Verifier) Verify(ctx context.Context, dir string) (verdict.Verdict, error) {
	// Completeness gate first: any missing or malformed required file
	// short-circuits to NOT_COMPARABLE before PASS/FAIL logic runs.
	var runManifest artefact.RunManifest
	var details VerdictDetails
	var recorded []stats.ConditionSummary

	missing := v.completenessGate(dir, &runManifest, &details, &recorded)
	if len(missing) > 0 {
		v.logger.Warn("run not comparable", zap.Strings("missing", missing))
		return verdict.Classify(nil, missing), nil
	}

	cfg := runManifest.Config
	ev := v.collectLevelEvidence(dir, cfg)

	suite, err := v.regenerateSuite(ctx, cfg)
	if err != nil {
		// The suite is a pure function of the recorded config; failure here
		// means the recorded parameters cannot reproduce a run at all.
		return verdict.Classify(nil, []string{FileRunManifest + " (parameters not reproducible)"}), nil
	}

	ref := v.loadReference(dir, recorded)

	results := BuildFitResults(cfg, ev, suite.Summaries, recorded, ref)
	final := verdict.Classify(results, nil)

	v.logger.Info("verification complete",
		zap.String("dir", dir),
		zap.String("status", string(final.Status)))
	return final, nil
}

// completenessGate checks the four required files exist and parse, returning
// the list of missing/malformed names.
func (v *Verifier) completenessGate(dir string, runManifest *artefact.RunManifest, details *VerdictDetails, recorded *[]stats.ConditionSummary) []string {
	var missing []string

	for _, name := range RequiredFiles() {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return missing
	}

	if err := ReadJSON(filepath.Join(dir, FileRunManifest), runManifest); err != nil {
		missing = append(missing, FileRunManifest+" (malformed)")
	} else if err := runManifest.Validate(); err != nil {
		missing = append(missing, FileRunManifest+" (incomplete)")
	}
	if err := ReadJSON(filepath.Join(dir, FileVerdictDetails), details); err != nil {
		missing = append(missing, FileVerdictDetails+" (malformed)")
	}
	rows, err := ReadFitSummaryCSV(filepath.Join(dir, FileFitSummary))
	switch {
	case err != nil:
		missing = append(missing, FileFitSummary+" (malformed)")
	case len(missingConditions(rows)) > 0:
		// A verdict needs the baseline and both negative controls on record;
		// a table stripped of any of them is as unusable as a missing one.
		missing = append(missing, FileFitSummary+" (missing condition rows)")
	default:
		*recorded = rows
	}
	return missing
}

// collectLevelEvidence performs the hash round-trip and the statistical
// recomputation over the level artefacts actually on disk.
func (v *Verifier) collectLevelEvidence(dir string, cfg artefact.RunConfig) LevelEvidence {
	ev := LevelEvidence{}

	manifest, err := ReadManifestCSV(dir)
	if err != nil {
		v.logger.Warn("manifest unreadable", zap.Error(err))
		ev.HashChecks = append(ev.HashChecks, HashCheck{Filename: FileManifest, Err: err})
		return ev
	}

	checks, err := VerifyManifest(dir, manifest)
	if err != nil {
		ev.HashChecks = append(ev.HashChecks, HashCheck{Filename: FileManifest, Err: err})
		return ev
	}
	ev.HashChecks = checks
	for _, c := range checks {
		if !c.OK() {
			v.logger.Error("integrity failure", zap.String("file", c.Filename), zap.Error(c.Err))
		}
	}

	groups := make([][]float64, 0, len(cfg.Levels))
	for _, level := range cfg.Levels {
		values, err := ReadLevelCSV(filepath.Join(dir, level.Filename()))
		if err != nil {
			v.logger.Warn("level artefact unreadable",
				zap.String("level", level.ID.String()), zap.Error(err))
			continue
		}
		if sum, err := stats.Summarize(level.ID, values); err == nil {
			ev.Summaries = append(ev.Summaries, sum)
			groups = append(groups, values)
		}
	}

	if len(groups) >= 2 {
		if res, err := stats.OneWayANOVA(groups); err == nil {
			ev.ANOVA = res
		}
	}
	return ev
}

// regenerateSuite replays the condition suite from the recorded seed.
func (v *Verifier) regenerateSuite(ctx context.Context, cfg artefact.RunConfig) (*generator.SuiteResult, error) {
	stream, err := v.rng.SeededStream(ctx, generator.StageConditions, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return generator.RunSuite(stream, cfg.Conditions)
}

// loadReference prefers the bundled reference metrics; when the file is
// absent the recorded fit table serves as the reference, which preserves
// the tamper cross-check while degrading the comparison to self-consistency.
func (v *Verifier) loadReference(dir string, recorded []stats.ConditionSummary) stats.ReferenceSet {
	ref := stats.ReferenceSet{}
	if err := ReadJSON(filepath.Join(dir, FileReference), &ref); err == nil {
		return ref
	}

	v.logger.Warn("reference metrics absent, using recorded fit table")
	for _, row := range recorded {
		ref[row.Condition.String()] = stats.ReferenceMetrics{
			R2Mean:         row.R2Mean,
			R2Std:          row.R2Std,
			BetaOriginMean: row.BetaOriginMean,
			R2OriginMean:   row.R2OriginMean,
		}
	}
	return ref
}
