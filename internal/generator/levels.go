package generator

import (
	"math"
	"math/rand"

	"replipack/domain/artefact"
	"replipack/domain/core"
)

// StageLevels is the RNG stream name for level-sample generation.
const StageLevels = "levels"

// DrawNoise produces n deviates with exactly zero sample mean and exactly
// unit sample standard deviation (ddof=1). Every level's noise having the
// same within-group variance is what lets a single shared scale factor hit
// the ANOVA F target later.
func DrawNoise(r *rand.Rand, n int) ([]float64, error) {
	if n < 2 {
		return nil, core.NewInsufficientSamplesError("noise", n)
	}

	z := make([]float64, n)
	for i := range z {
		z[i] = r.NormFloat64()
	}
	center(z)

	s := sampleStd(z)
	if s == 0 {
		// Degenerate draw: fall back to a centered ramp, as the published
		// generator does.
		for i := range z {
			z[i] = float64(i) - float64(n-1)/2.0
		}
		s = sampleStd(z)
	}
	for i := range z {
		z[i] /= s
	}

	// One more centering pass: the division can nudge the mean by an ulp.
	center(z)
	return z, nil
}

// GenerateRaw draws the noise shape for every level in definition order from
// a single stream, so the byte-identical replay property holds across the
// whole set.
func GenerateRaw(r *rand.Rand, levels []artefact.Level) (map[core.LevelID][]float64, error) {
	raw := make(map[core.LevelID][]float64, len(levels))
	for _, level := range levels {
		if err := level.Validate(); err != nil {
			return nil, err
		}
		z, err := DrawNoise(r, level.N)
		if err != nil {
			return nil, err
		}
		raw[level.ID] = z
	}
	return raw, nil
}

func center(z []float64) {
	var mean float64
	for _, v := range z {
		mean += v
	}
	mean /= float64(len(z))
	for i := range z {
		z[i] -= mean
	}
}

func sampleStd(z []float64) float64 {
	var mean float64
	for _, v := range z {
		mean += v
	}
	mean /= float64(len(z))

	var ss float64
	for _, v := range z {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(z)-1))
}
