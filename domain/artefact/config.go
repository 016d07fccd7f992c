package artefact

import (
	"replipack/domain/core"
)

// Variance convention for every statistic in this system: sample variance,
// divisor n-1. Population variance is never used.
const VarianceDDOF = 1

// CSVPrecision is the fixed decimal precision for artefact values. Hashes
// are only byte-stable across runs because this never changes.
const CSVPrecision = 10

// RunConfig is the complete, immutable specification of one generation run.
// It is passed explicitly through every component; nothing reads process-wide
// mutable state, so seed sweeps can run side by side without contamination.
type RunConfig struct {
	Seed    int64   `json:"seed"`
	Levels  []Level `json:"levels"`
	Shift   Shift   `json:"shift"`
	TargetF float64 `json:"target_f"`

	TolF     float64 `json:"tol_f"`
	TolMean  float64 `json:"tol_mean"`
	TolShift float64 `json:"tol_shift"`

	// Admissible range for the calibration scale factor.
	ScaleMin float64 `json:"scale_min"`
	ScaleMax float64 `json:"scale_max"`

	OutDir string `json:"out_dir"`

	Conditions ConditionParams     `json:"conditions"`
	RefTol     ReferenceTolerances `json:"reference_tolerances"`
}

// ConditionParams drives the condition suite: one baseline coherent
// condition plus the negative controls used to rule out false positives.
type ConditionParams struct {
	N              int     `json:"n"`
	Replicates     int     `json:"replicates"`
	Band           float64 `json:"band"`
	LambdaMin      float64 `json:"lambda_threshold"`
	MeanAbsMax     float64 `json:"mean_abs_max"`
	SignChangesMin int     `json:"sign_changes_min"`
	SignChangesMax int     `json:"sign_changes_max"`
	PSpectrum      float64 `json:"p_spectrum"`

	// MaxAttempts bounds the acceptance-gate retry loop. The generator never
	// searches indefinitely for an acceptable draw.
	MaxAttempts int `json:"max_attempts"`

	// Controls whose quadratic fit exceeds this R^2 are anomalies.
	NegControlR2Max float64 `json:"neg_control_r2_max"`
}

// ReferenceTolerances bound the reference-matching checks for the baseline
// condition.
type ReferenceTolerances struct {
	R2MeanAbs         float64 `json:"r2_mean_abs"`
	R2StdAbs          float64 `json:"r2_std_abs"`
	BetaOriginMeanRel float64 `json:"beta_origin_mean_rel"`
	R2OriginMeanAbs   float64 `json:"r2_origin_mean_abs"`
}

// BaselineCondition is the condition expected to reproduce the published
// coherent signature.
const BaselineCondition core.Condition = "coherent_bin_clean"

// Negative controls: expected to show no quadratic signature.
const (
	ConditionRandomBin     core.Condition = "random_bin"
	ConditionPalindromeBin core.Condition = "palindrome_bin_no_coherence"
)

// NegativeControls lists the control conditions in suite order.
func NegativeControls() []core.Condition {
	return []core.Condition{ConditionRandomBin, ConditionPalindromeBin}
}

// DefaultRunConfig returns the published v6.1/v6.2 parameters: three levels
// with the reported means, the reported ANOVA F target, and the bundled
// condition-suite settings.
func DefaultRunConfig(outDir string, seed int64) RunConfig {
	return RunConfig{
		Seed: seed,
		Levels: []Level{
			{ID: "ctrl", TargetMean: 0.9978, N: 40},
			{ID: "pi8", TargetMean: 0.9457, N: 40},
			{ID: "pi4", TargetMean: 0.7842, N: 40},
		},
		Shift:    Shift{From: "ctrl", To: "pi4", Value: -0.2136},
		TargetF:  5764.3,
		TolF:     0.5,
		TolMean:  1e-6,
		TolShift: 1e-6,
		ScaleMin: 1e-9,
		ScaleMax: 1e9,
		OutDir:   outDir,
		Conditions: ConditionParams{
			N:               512,
			Replicates:      120,
			Band:            0.08,
			LambdaMin:       0.75,
			MeanAbsMax:      0.10,
			SignChangesMin:  2,
			SignChangesMax:  200,
			PSpectrum:       2.70,
			MaxAttempts:     1000,
			NegControlR2Max: 0.20,
		},
		RefTol: ReferenceTolerances{
			R2MeanAbs:         0.05,
			R2StdAbs:          0.03,
			BetaOriginMeanRel: 0.12,
			R2OriginMeanAbs:   0.20,
		},
	}
}

// Validate checks the full configuration before a run starts.
func (c RunConfig) Validate() error {
	if c.Seed < 0 {
		return core.NewConfigurationError("seed", "must be a non-negative integer")
	}
	if len(c.Levels) < 2 {
		return core.NewConfigurationError("levels", "need at least two levels for ANOVA")
	}
	seen := map[core.LevelID]bool{}
	for _, l := range c.Levels {
		if err := l.Validate(); err != nil {
			return err
		}
		if seen[l.ID] {
			return core.NewConfigurationError("levels", "duplicate level id "+l.ID.String())
		}
		seen[l.ID] = true
	}
	from, okFrom := c.levelByID(c.Shift.From)
	to, okTo := c.levelByID(c.Shift.To)
	if !okFrom || !okTo {
		return core.NewConfigurationError("shift", "references an unknown level")
	}
	if diff := to.TargetMean - from.TargetMean - c.Shift.Value; diff > c.TolShift || diff < -c.TolShift {
		return core.NewConfigurationError("shift", "prescribed value disagrees with level target means")
	}
	if c.TargetF <= 0 {
		return core.NewConfigurationError("target_f", "must be positive")
	}
	if c.TolF <= 0 || c.TolMean <= 0 || c.TolShift <= 0 {
		return core.NewConfigurationError("tolerances", "must be positive")
	}
	if c.ScaleMin <= 0 || c.ScaleMax <= c.ScaleMin {
		return core.NewConfigurationError("scale range", "need 0 < scale_min < scale_max")
	}
	if c.OutDir == "" {
		return core.NewConfigurationError("out_dir", "cannot be empty")
	}
	if c.Conditions.N < 4 || c.Conditions.N%2 != 0 {
		return core.NewConfigurationError("conditions.n", "must be even and >= 4")
	}
	if c.Conditions.Replicates < 1 {
		return core.NewConfigurationError("conditions.replicates", "must be >= 1")
	}
	if c.Conditions.MaxAttempts < 1 {
		return core.NewConfigurationError("conditions.max_attempts", "must be >= 1")
	}
	return nil
}

func (c RunConfig) levelByID(id core.LevelID) (Level, bool) {
	for _, l := range c.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return Level{}, false
}

// LevelByID returns the level definition for an id.
func (c RunConfig) LevelByID(id core.LevelID) (Level, bool) {
	return c.levelByID(id)
}
