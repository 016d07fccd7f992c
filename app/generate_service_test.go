package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"replipack/adapters/rng"
	"replipack/domain/artefact"
	"replipack/domain/verdict"
	"replipack/internal/logging"
	"replipack/internal/pack"
)

// testRunConfig is a scaled-down configuration so a full generate+verify
// cycle stays fast while exercising every gate.
func testRunConfig(dir string, seed int64) artefact.RunConfig {
	return artefact.RunConfig{
		Seed: seed,
		Levels: []artefact.Level{
			{ID: "ctrl", TargetMean: 0.10, N: 12},
			{ID: "mid", TargetMean: 0.18, N: 12},
			{ID: "high", TargetMean: 0.08, N: 12},
		},
		Shift:    artefact.Shift{From: "ctrl", To: "high", Value: -0.02},
		TargetF:  12.4,
		TolF:     0.05,
		TolMean:  1e-6,
		TolShift: 1e-6,
		ScaleMin: 1e-9,
		ScaleMax: 1e9,
		OutDir:   dir,
		Conditions: artefact.ConditionParams{
			N:               128,
			Replicates:      6,
			Band:            0.08,
			LambdaMin:       0.75,
			MeanAbsMax:      0.10,
			SignChangesMin:  1,
			SignChangesMax:  200,
			PSpectrum:       2.70,
			MaxAttempts:     2000,
			NegControlR2Max: 0.20,
		},
		RefTol: artefact.ReferenceTolerances{
			R2MeanAbs:         0.05,
			R2StdAbs:          0.03,
			BetaOriginMeanRel: 0.12,
			R2OriginMeanAbs:   0.20,
		},
	}
}

func newTestServices() (*GenerateService, *VerifyService) {
	logger := logging.Nop()
	adapter := rng.NewStreamAdapter()
	return NewGenerateService(adapter, nil, nil, logger), NewVerifyService(adapter, logger)
}

func TestGenerateWritesCompletePack(t *testing.T) {
	dir := t.TempDir()
	gen, _ := newTestServices()

	result, err := gen.Run(context.Background(), testRunConfig(dir, 42), true)
	require.NoError(t, err)

	require.Equal(t, verdict.StatusPass, result.Verdict.Status, "reason: %s", result.Verdict.Reason)
	require.Equal(t, 3, result.Manifest.Len(), "manifest covers the three level artefacts")

	expected := []string{
		"raw_level_ctrl.csv", "raw_level_mid.csv", "raw_level_high.csv",
		pack.FileManifest, pack.FileHashes, pack.FileRunManifest,
		pack.FileVerdictDetails, pack.FileReference, pack.FileFitSummary,
	}
	for _, name := range expected {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "expected artefact %s", name)
	}

	// The lock must be gone once the run completes.
	_, err = os.Stat(filepath.Join(dir, ".replipack.lock"))
	require.True(t, os.IsNotExist(err), "run lock left behind")
}

// TestGenerateVerifyRoundTrip: a freshly generated pack verifies as an
// official replication.
func TestGenerateVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	gen, ver := newTestServices()

	_, err := gen.Run(context.Background(), testRunConfig(dir, 42), true)
	require.NoError(t, err)

	v, err := ver.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, verdict.StatusPass, v.Status, "reason: %s", v.Reason)
	require.Equal(t, 0, v.ExitCode())
}

// TestGenerateDeterminism: two runs with the same seed produce
// byte-identical artefacts, in different directories.
func TestGenerateDeterminism(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	gen, _ := newTestServices()

	_, err := gen.Run(context.Background(), testRunConfig(dirA, 42), true)
	require.NoError(t, err)
	_, err = gen.Run(context.Background(), testRunConfig(dirB, 42), true)
	require.NoError(t, err)

	for _, name := range []string{
		"raw_level_ctrl.csv", "raw_level_mid.csv", "raw_level_high.csv",
		pack.FileHashes, pack.FileFitSummary,
	} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		require.Equal(t, a, b, "artefact %s differs between identically seeded runs", name)
	}

	// The fingerprint ignores the output location.
	var ma, mb artefact.RunManifest
	require.NoError(t, pack.ReadJSON(filepath.Join(dirA, pack.FileRunManifest), &ma))
	require.NoError(t, pack.ReadJSON(filepath.Join(dirB, pack.FileRunManifest), &mb))
	require.Equal(t, ma.Fingerprint.Fingerprint, mb.Fingerprint.Fingerprint)
	require.NotEqual(t, ma.RunID, mb.RunID, "each run keeps its own identity")
}

func TestGenerateSeedChangesArtefacts(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	gen, _ := newTestServices()

	_, err := gen.Run(context.Background(), testRunConfig(dirA, 42), true)
	require.NoError(t, err)
	_, err = gen.Run(context.Background(), testRunConfig(dirB, 43), true)
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(dirA, "raw_level_ctrl.csv"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dirB, "raw_level_ctrl.csv"))
	require.NoError(t, err)
	require.NotEqual(t, a, b, "different seeds must produce different samples")
}

// TestVerifyTamperedArtefactFails: corrupting one byte of a raw level file
// must downgrade the verdict to a FAIL, not NOT_COMPARABLE: all required
// files are still present.
func TestVerifyTamperedArtefactFails(t *testing.T) {
	dir := t.TempDir()
	gen, ver := newTestServices()

	_, err := gen.Run(context.Background(), testRunConfig(dir, 42), true)
	require.NoError(t, err)

	path := filepath.Join(dir, "raw_level_ctrl.csv")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a digit in the first data row.
	raw[4] = '9'
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	v, err := ver.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, verdict.StatusFail, v.Status)
	require.Equal(t, 1, v.ExitCode())
}

// TestVerifyMissingRequiredFiles: removing any one of the four required
// files yields NOT_COMPARABLE before any statistical logic runs.
func TestVerifyMissingRequiredFiles(t *testing.T) {
	for _, name := range []string{
		pack.FileVerdictDetails,
		pack.FileRunManifest,
		pack.FileHashes,
		pack.FileFitSummary,
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			gen, ver := newTestServices()

			_, err := gen.Run(context.Background(), testRunConfig(dir, 42), true)
			require.NoError(t, err)
			require.NoError(t, os.Remove(filepath.Join(dir, name)))

			v, err := ver.Run(context.Background(), dir)
			require.NoError(t, err)
			require.Equal(t, verdict.StatusNotComparable, v.Status)
			require.Contains(t, v.Reason, name)
			require.Equal(t, 2, v.ExitCode())
		})
	}
}

// TestVerifyMalformedRunManifest: an unparseable run manifest is gated the
// same way as a missing one.
func TestVerifyMalformedRunManifest(t *testing.T) {
	dir := t.TempDir()
	gen, ver := newTestServices()

	_, err := gen.Run(context.Background(), testRunConfig(dir, 42), true)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, pack.FileRunManifest), []byte("{broken"), 0o644))

	v, err := ver.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, verdict.StatusNotComparable, v.Status)
}

// TestVerifyEditedFitTableFails: the recorded table is cross-checked
// against the regenerated suite, so an edited value is caught even though
// the file itself is well formed.
func TestVerifyEditedFitTableFails(t *testing.T) {
	dir := t.TempDir()
	gen, ver := newTestServices()

	_, err := gen.Run(context.Background(), testRunConfig(dir, 42), true)
	require.NoError(t, err)

	path := filepath.Join(dir, pack.FileFitSummary)
	rows, err := pack.ReadFitSummaryCSV(path)
	require.NoError(t, err)
	rows[0].R2Mean += 0.01
	require.NoError(t, pack.WriteFitSummaryCSV(dir, rows))

	v, err := ver.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, verdict.StatusFail, v.Status)
}

// TestVerifyFitTableMissingControls: stripping the negative-control rows out
// of the fit table leaves the file well formed, but a verdict cannot rest on
// a table without its controls. That is a NOT_COMPARABLE at the gate, never a
// PASS.
func TestVerifyFitTableMissingControls(t *testing.T) {
	dir := t.TempDir()
	gen, ver := newTestServices()

	_, err := gen.Run(context.Background(), testRunConfig(dir, 42), true)
	require.NoError(t, err)

	path := filepath.Join(dir, pack.FileFitSummary)
	rows, err := pack.ReadFitSummaryCSV(path)
	require.NoError(t, err)

	kept := rows[:0]
	for _, row := range rows {
		if row.Condition == artefact.BaselineCondition {
			kept = append(kept, row)
		}
	}
	require.Len(t, kept, 1)
	require.NoError(t, pack.WriteFitSummaryCSV(dir, kept))

	v, err := ver.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, verdict.StatusNotComparable, v.Status, "reason: %s", v.Reason)
	require.Contains(t, v.Reason, pack.FileFitSummary)
	require.Equal(t, 2, v.ExitCode())
}

// TestVerifyEmptyConfigManifest: a run manifest that parses but records an
// empty configuration cannot drive replay. The gate treats it like a missing
// manifest rather than classifying against garbage parameters.
func TestVerifyEmptyConfigManifest(t *testing.T) {
	dir := t.TempDir()
	gen, ver := newTestServices()

	_, err := gen.Run(context.Background(), testRunConfig(dir, 42), true)
	require.NoError(t, err)

	path := filepath.Join(dir, pack.FileRunManifest)
	var m artefact.RunManifest
	require.NoError(t, pack.ReadJSON(path, &m))
	m.Config = artefact.RunConfig{}
	require.NoError(t, pack.WriteJSON(path, &m))

	v, err := ver.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, verdict.StatusNotComparable, v.Status, "reason: %s", v.Reason)
	require.Contains(t, v.Reason, pack.FileRunManifest)
	require.Equal(t, 2, v.ExitCode())
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	gen, _ := newTestServices()

	cfg := testRunConfig(t.TempDir(), 42)
	cfg.Levels = cfg.Levels[:1]

	_, err := gen.Run(context.Background(), cfg, true)
	require.Error(t, err)
}
