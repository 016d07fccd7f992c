package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"replipack/domain/artefact"
	"replipack/domain/core"
	"replipack/domain/stats"
	"replipack/domain/verdict"
	"replipack/internal/generator"
	"replipack/internal/pack"
	"replipack/ports"
)

// GenerateService runs the full generation pipeline: draw, calibrate, write,
// hash, run the condition suite, and record the run's own verdict. Strictly
// sequential within a run; each run owns its output directory exclusively.
type GenerateService struct {
	rng      ports.RNGPort
	runs     ports.RunRepository
	exporter ports.TableExporter
	logger   *zap.Logger
}

// NewGenerateService creates the generation service. runs and exporter are
// optional; nil disables the ledger and the Excel export respectively.
func NewGenerateService(rng ports.RNGPort, runs ports.RunRepository, exporter ports.TableExporter, logger *zap.Logger) *GenerateService {
	return &GenerateService{rng: rng, runs: runs, exporter: exporter, logger: logger}
}

// GenerateResult is the complete output of one generation run.
type GenerateResult struct {
	RunID       core.RunID            `json:"run_id"`
	Manifest    *artefact.Manifest    `json:"manifest"`
	Calibration generator.Calibration `json:"calibration"`
	Verdict     verdict.Verdict       `json:"verdict"`
	Files       []string              `json:"files"`
	RuntimeMs   int64                 `json:"runtime_ms"`
}

// Run executes one generation run for an immutable configuration.
func (s *GenerateService) Run(ctx context.Context, cfg artefact.RunConfig, overwrite bool) (*GenerateResult, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := core.RunID(core.NewID())
	log := s.logger.With(zap.String("run_id", runID.String()), zap.Int64("seed", cfg.Seed))

	levelStream, err := s.rng.SeededStream(ctx, generator.StageLevels, cfg.Seed)
	if err != nil {
		return nil, err
	}

	raw, err := generator.GenerateRaw(levelStream, cfg.Levels)
	if err != nil {
		return nil, err
	}
	calibrated, calibration, err := generator.Calibrate(cfg, raw)
	if err != nil {
		return nil, err
	}
	log.Info("calibration solved",
		zap.Float64("scale", calibration.Scale),
		zap.Float64("achieved_f", calibration.AchievedF))

	writer := pack.NewWriter(cfg.OutDir, overwrite, log)
	release, err := writer.AcquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	var artefacts []artefact.Artefact
	for _, level := range cfg.Levels {
		a, err := writer.WriteLevelCSV(level, calibrated[level.ID])
		if err != nil {
			return nil, err
		}
		artefacts = append(artefacts, a)
	}

	manifest, err := pack.BuildManifest(cfg.OutDir, artefacts)
	if err != nil {
		return nil, err
	}
	if err := pack.WriteManifestCSV(cfg.OutDir, manifest); err != nil {
		return nil, err
	}
	if err := pack.WriteHashesTxt(cfg.OutDir, manifest); err != nil {
		return nil, err
	}

	conditionStream, err := s.rng.SeededStream(ctx, generator.StageConditions, cfg.Seed)
	if err != nil {
		return nil, err
	}
	suite, err := generator.RunSuite(conditionStream, cfg.Conditions)
	if err != nil {
		return nil, err
	}
	if err := pack.WriteFitSummaryCSV(cfg.OutDir, suite.Summaries); err != nil {
		return nil, err
	}

	ref := referenceFromSuite(suite)
	if err := pack.WriteJSON(writer.Path(pack.FileReference), ref); err != nil {
		return nil, err
	}

	ev, err := s.levelEvidence(cfg, calibrated, manifest)
	if err != nil {
		return nil, err
	}

	results := pack.BuildFitResults(cfg, ev, suite.Summaries, nil, ref)
	v := verdict.Classify(results, nil)

	if err := pack.WriteJSON(writer.Path(pack.FileVerdictDetails), pack.NewVerdictDetails(cfg, v)); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(artefacts)+5)
	for _, a := range artefacts {
		files = append(files, a.Filename)
	}
	files = append(files, pack.FileManifest, pack.FileHashes, pack.FileFitSummary, pack.FileReference, pack.FileVerdictDetails, pack.FileRunManifest)

	runManifest := artefact.NewRunManifest(runID, cfg, files)
	runManifest.Verdict = string(v.Status)
	if err := pack.WriteJSON(writer.Path(pack.FileRunManifest), runManifest); err != nil {
		return nil, err
	}

	s.recordRun(ctx, log, runManifest, v)
	s.exportTables(ctx, log, writer, results)

	log.Info("generation complete",
		zap.String("status", string(v.Status)),
		zap.Int("artefacts", manifest.Len()))

	return &GenerateResult{
		RunID:       runID,
		Manifest:    manifest,
		Calibration: calibration,
		Verdict:     v,
		Files:       files,
		RuntimeMs:   time.Since(start).Milliseconds(),
	}, nil
}

// levelEvidence measures the just-written artefacts: a fresh hash
// round-trip plus the statistical summaries the verdict needs.
func (s *GenerateService) levelEvidence(cfg artefact.RunConfig, calibrated map[core.LevelID][]float64, manifest *artefact.Manifest) (pack.LevelEvidence, error) {
	ev := pack.LevelEvidence{}

	checks, err := pack.VerifyManifest(cfg.OutDir, manifest)
	if err != nil {
		return ev, err
	}
	ev.HashChecks = checks

	groups := make([][]float64, 0, len(cfg.Levels))
	for _, level := range cfg.Levels {
		sum, err := stats.Summarize(level.ID, calibrated[level.ID])
		if err != nil {
			return ev, err
		}
		ev.Summaries = append(ev.Summaries, sum)
		groups = append(groups, calibrated[level.ID])
	}

	anova, err := stats.OneWayANOVA(groups)
	if err != nil {
		return ev, err
	}
	ev.ANOVA = anova
	return ev, nil
}

// referenceFromSuite bundles the baseline's measured metrics as the pack's
// reference, mirroring how the published kit ships its reference file.
func referenceFromSuite(suite *generator.SuiteResult) stats.ReferenceSet {
	ref := stats.ReferenceSet{}
	if row, ok := suite.Summary(artefact.BaselineCondition); ok {
		ref[row.Condition.String()] = stats.ReferenceMetrics{
			R2Mean:         row.R2Mean,
			R2Std:          row.R2Std,
			BetaOriginMean: row.BetaOriginMean,
			R2OriginMean:   row.R2OriginMean,
		}
	}
	return ref
}

func (s *GenerateService) recordRun(ctx context.Context, log *zap.Logger, m *artefact.RunManifest, v verdict.Verdict) {
	if s.runs == nil {
		return
	}
	if err := s.runs.RecordRun(ctx, m); err != nil {
		log.Warn("run ledger record failed", zap.Error(err))
		return
	}
	if err := s.runs.RecordVerdict(ctx, m.RunID, v); err != nil {
		log.Warn("run ledger verdict record failed", zap.Error(err))
	}
}

func (s *GenerateService) exportTables(ctx context.Context, log *zap.Logger, writer *pack.Writer, results []verdict.FitResult) {
	if s.exporter == nil {
		return
	}
	path := writer.Path("tables/fit_summary_by_condition.xlsx")
	if err := s.exporter.ExportFitSummary(ctx, path, results); err != nil {
		log.Warn("excel export failed", zap.Error(err))
	}
}
