package generator

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/dsp/fourier"

	"replipack/domain/artefact"
	"replipack/domain/core"
)

// StageConditions is the RNG stream name for the condition suite.
const StageConditions = "conditions"

// CoherenceMetrics records the acceptance-gate values of one accepted
// coherent draw.
type CoherenceMetrics struct {
	Lambda      float64 `json:"lambda"`
	Mean        float64 `json:"mean"`
	SignChanges int     `json:"sign_changes_half"`
}

// GenerateCoherent builds one coherent, palindromized, low-pass real signal
// with unit RMS. Amplitudes follow 1/f^(p/2) over the sub-band bins of the
// half-length spectrum with uniform random phases; the half signal is
// mirrored to enforce the palindrome structure.
//
// Draws are retried until the acceptance gates hold (low-frequency energy
// ratio, bounded mean, sign-change window), but never more than MaxAttempts
// times: an exhausted budget is a reported calibration failure, not an
// unbounded search.
func GenerateCoherent(r *rand.Rand, p artefact.ConditionParams) ([]float64, CoherenceMetrics, error) {
	n := p.N
	m := n / 2

	half := fourier.NewFFT(m)
	nCoeff := m/2 + 1

	// Sub-band bins of the half spectrum, excluding DC.
	var bins []int
	for k := 1; k < nCoeff; k++ {
		if float64(k)/float64(m) <= p.Band {
			bins = append(bins, k)
		}
	}
	if len(bins) == 0 {
		return nil, CoherenceMetrics{}, core.NewConfigurationError("conditions.band", "too small, no frequency bins available")
	}

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		spec := make([]complex128, nCoeff)
		for _, k := range bins {
			f := float64(k)
			amp := 1.0 / math.Pow(f, p.PSpectrum/2.0)
			phase := r.Float64() * 2 * math.Pi
			spec[k] = complex(amp*math.Cos(phase), amp*math.Sin(phase))
		}
		// Nyquist bin must be real for a real inverse transform.
		if m%2 == 0 {
			spec[nCoeff-1] = complex(real(spec[nCoeff-1]), 0)
		}

		h := half.Sequence(nil, spec)
		x := make([]float64, 0, n)
		x = append(x, h...)
		for i := m - 1; i >= 0; i-- {
			x = append(x, h[i])
		}
		unitRMS(x)

		lam := lowFreqRatio(x, p.Band)
		mu := meanOf(x)
		sc := signChangesHalf(x)

		if lam >= p.LambdaMin && math.Abs(mu) <= p.MeanAbsMax &&
			sc >= p.SignChangesMin && sc <= p.SignChangesMax {
			return x, CoherenceMetrics{Lambda: lam, Mean: mu, SignChanges: sc}, nil
		}
	}

	return nil, CoherenceMetrics{}, core.NewCalibrationError(p.LambdaMin, 0, 0, float64(p.MaxAttempts))
}

// Binarize maps the signal to +-1 by sign, zero counting as positive.
func Binarize(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if v >= 0 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}

// RandomBin draws an i.i.d. +-1 sequence: the first negative control.
func RandomBin(r *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if r.Intn(2) == 0 {
			out[i] = -1
		} else {
			out[i] = 1
		}
	}
	return out
}

// PalindromeBin mirrors a random +-1 half: palindromic structure with no
// spectral coherence, the second negative control.
func PalindromeBin(r *rand.Rand, n int) []float64 {
	half := RandomBin(r, n/2)
	out := make([]float64, 0, n)
	out = append(out, half...)
	for i := n/2 - 1; i >= 0; i-- {
		out = append(out, half[i])
	}
	return out
}

// Roll rotates x left by k positions.
func Roll(x []float64, k int) []float64 {
	n := len(x)
	k = ((k % n) + n) % n
	out := make([]float64, n)
	for i := range out {
		out[i] = x[(i+k)%n]
	}
	return out
}

// SmallAngleGrid returns the rotation steps used for the quadratic fits:
// the small-angle regime k <= n/16.
func SmallAngleGrid() []int {
	return []int{0, 1, 2, 3, 4, 5, 6, 8, 10, 12, 16, 20, 24, 28, 32}
}

// RotationEnergy computes E(k) = 2 - 2*mean(x .* roll(x,-k)) over the grid,
// paired with theta^2 for theta = 2*pi*k/n.
func RotationEnergy(x []float64, grid []int) (theta2, energy []float64) {
	n := len(x)
	theta2 = make([]float64, len(grid))
	energy = make([]float64, len(grid))
	for i, k := range grid {
		theta := 2 * math.Pi * float64(k) / float64(n)
		theta2[i] = theta * theta

		xk := Roll(x, k)
		var c float64
		for j := range x {
			c += x[j] * xk[j]
		}
		c /= float64(n)
		energy[i] = 2 - 2*c
	}
	return theta2, energy
}

func unitRMS(x []float64) {
	mu := meanOf(x)
	var ss float64
	for i := range x {
		x[i] -= mu
		ss += x[i] * x[i]
	}
	rms := math.Sqrt(ss / float64(len(x)))
	if rms == 0 {
		return
	}
	for i := range x {
		x[i] /= rms
	}
}

func meanOf(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

// lowFreqRatio is the share of spectral power at frequencies <= band.
func lowFreqRatio(x []float64, band float64) float64 {
	n := len(x)
	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, x)

	var num, den float64
	for i, c := range coeff {
		p := real(c)*real(c) + imag(c)*imag(c)
		den += p
		if fft.Freq(i) <= band {
			num += p
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// signChangesHalf counts sign flips in the first half of the signal, zeros
// counting as positive.
func signChangesHalf(x []float64) int {
	half := x[:len(x)/2]
	count := 0
	prev := sign(half[0])
	for _, v := range half[1:] {
		s := sign(v)
		if s != prev {
			count++
		}
		prev = s
	}
	return count
}

func sign(v float64) int {
	if v >= 0 {
		return 1
	}
	return -1
}
