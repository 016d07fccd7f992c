package generator

import (
	"math"

	"replipack/domain/artefact"
	"replipack/domain/core"
	"replipack/domain/stats"
)

// Calibration records the solved scale factor and the F actually achieved.
type Calibration struct {
	Scale     float64 `json:"scale"`
	AchievedF float64 `json:"achieved_f"`
}

// Calibrate turns raw unit-variance noise into calibrated samples whose
// one-way ANOVA F matches the configured target.
//
// With every level's deviations normalized to unit sample variance, the
// pooled within-group mean square under a shared scale c is exactly c^2,
// while the between-group mean square is fixed by the target means. So
// F(c) = MSB / c^2 inverts in closed form: c = sqrt(MSB / F*). No search
// loop, no rejection sampling; the solution is unique because F is strictly
// monotone in c^-2.
//
// Scaling touches only the mean-centered deviations; each level's mean is
// re-enforced exactly afterwards.
func Calibrate(cfg artefact.RunConfig, raw map[core.LevelID][]float64) (map[core.LevelID][]float64, Calibration, error) {
	means := make([]float64, len(cfg.Levels))
	sizes := make([]int, len(cfg.Levels))
	for i, l := range cfg.Levels {
		means[i] = l.TargetMean
		sizes[i] = l.N
	}
	msb := stats.BetweenMeanSquare(means, sizes)

	c := math.Sqrt(msb / cfg.TargetF)
	if math.IsNaN(c) || c < cfg.ScaleMin || c > cfg.ScaleMax {
		return nil, Calibration{}, core.NewCalibrationError(cfg.TargetF, msb/(c*c), cfg.ScaleMin, cfg.ScaleMax)
	}

	calibrated := make(map[core.LevelID][]float64, len(cfg.Levels))
	groups := make([][]float64, 0, len(cfg.Levels))
	for _, level := range cfg.Levels {
		z, ok := raw[level.ID]
		if !ok {
			return nil, Calibration{}, core.NewConfigurationError("calibrate", "missing raw samples for level "+level.ID.String())
		}
		x := make([]float64, len(z))
		for i, v := range z {
			x[i] = level.TargetMean + c*v
		}
		enforceMean(x, level.TargetMean)
		calibrated[level.ID] = x
		groups = append(groups, x)
	}

	res, err := stats.OneWayANOVA(groups)
	if err != nil {
		return nil, Calibration{}, err
	}
	if !stats.FWithinTolerance(res.F, cfg.TargetF, cfg.TolF) {
		return nil, Calibration{}, core.NewCalibrationError(cfg.TargetF, res.F, cfg.ScaleMin, cfg.ScaleMax)
	}

	if err := checkMeansAndShift(cfg, calibrated); err != nil {
		return nil, Calibration{}, err
	}

	return calibrated, Calibration{Scale: c, AchievedF: res.F}, nil
}

// enforceMean shifts x so its mean equals target exactly (to float64
// resolution). The scale step preserves means analytically; this removes
// the residual rounding drift.
func enforceMean(x []float64, target float64) {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	delta := target - mean
	for i := range x {
		x[i] += delta
	}
}

func checkMeansAndShift(cfg artefact.RunConfig, samples map[core.LevelID][]float64) error {
	measured := make(map[core.LevelID]float64, len(samples))
	for _, level := range cfg.Levels {
		sum, err := stats.Summarize(level.ID, samples[level.ID])
		if err != nil {
			return err
		}
		if math.Abs(sum.Mean-level.TargetMean) > cfg.TolMean {
			return core.NewConfigurationError("calibrate",
				"level "+level.ID.String()+" mean drifted beyond tolerance")
		}
		measured[level.ID] = sum.Mean
	}

	shift := measured[cfg.Shift.To] - measured[cfg.Shift.From]
	if math.Abs(shift-cfg.Shift.Value) > cfg.TolShift {
		return core.NewConfigurationError("calibrate", "pairwise shift drifted beyond tolerance")
	}
	return nil
}
