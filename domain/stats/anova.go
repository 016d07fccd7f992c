package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"replipack/domain/core"
)

// ANOVAResult holds a one-way ANOVA computed with sample variance (ddof=1)
// within each group.
type ANOVAResult struct {
	F      float64 `json:"f"`
	PValue float64 `json:"p_value"`
	DFB    int     `json:"df_between"`
	DFW    int     `json:"df_within"`
	MSB    float64 `json:"ms_between"`
	MSW    float64 `json:"ms_within"`
}

// OneWayANOVA computes the one-way F-statistic across k groups.
// F = MS_between / MS_within with SS_within summed over per-group
// mean-centered squares (equivalently pooled sample variances, ddof=1).
func OneWayANOVA(groups [][]float64) (ANOVAResult, error) {
	k := len(groups)
	if k < 2 {
		return ANOVAResult{}, core.NewConfigurationError("anova", "need at least two groups")
	}

	total := 0
	grandSum := 0.0
	for _, g := range groups {
		if len(g) < 2 {
			return ANOVAResult{}, core.NewInsufficientSamplesError("group", len(g))
		}
		total += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(total)

	ssb := 0.0
	ssw := 0.0
	for _, g := range groups {
		n := float64(len(g))
		sum := 0.0
		for _, v := range g {
			sum += v
		}
		mean := sum / n
		d := mean - grandMean
		ssb += n * d * d
		for _, v := range g {
			e := v - mean
			ssw += e * e
		}
	}

	dfb := k - 1
	dfw := total - k
	msb := ssb / float64(dfb)
	msw := ssw / float64(dfw)

	if msw == 0 {
		return ANOVAResult{}, core.NewConfigurationError("anova", "zero within-group variance")
	}

	f := msb / msw
	fDist := distuv.F{D1: float64(dfb), D2: float64(dfw)}
	p := 1 - fDist.CDF(f)

	return ANOVAResult{F: f, PValue: p, DFB: dfb, DFW: dfw, MSB: msb, MSW: msw}, nil
}

// BetweenMeanSquare computes MS_between implied by a set of level target
// means and group sizes alone. The calibrator uses this: target means fix
// MS_between before any sample is drawn.
func BetweenMeanSquare(means []float64, sizes []int) float64 {
	total := 0
	weighted := 0.0
	for i, m := range means {
		total += sizes[i]
		weighted += float64(sizes[i]) * m
	}
	grand := weighted / float64(total)

	ssb := 0.0
	for i, m := range means {
		d := m - grand
		ssb += float64(sizes[i]) * d * d
	}
	return ssb / float64(len(means)-1)
}

// FWithinTolerance reports whether a measured F is within tol of target.
func FWithinTolerance(measured, target, tol float64) bool {
	return math.Abs(measured-target) <= tol
}
