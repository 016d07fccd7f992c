package generator

import (
	"math"
	"math/rand"
	"testing"

	"replipack/domain/artefact"
	"replipack/domain/stats"
)

func testConditionParams() artefact.ConditionParams {
	return artefact.ConditionParams{
		N:               128,
		Replicates:      8,
		Band:            0.08,
		LambdaMin:       0.75,
		MeanAbsMax:      0.10,
		SignChangesMin:  1,
		SignChangesMax:  200,
		PSpectrum:       2.70,
		MaxAttempts:     2000,
		NegControlR2Max: 0.20,
	}
}

func TestGenerateCoherentGates(t *testing.T) {
	p := testConditionParams()
	r := rand.New(rand.NewSource(9))

	x, coh, err := GenerateCoherent(r, p)
	if err != nil {
		t.Fatalf("GenerateCoherent failed: %v", err)
	}
	if len(x) != p.N {
		t.Fatalf("got %d samples, want %d", len(x), p.N)
	}

	if coh.Lambda < p.LambdaMin {
		t.Errorf("lambda = %v, below accepted threshold %v", coh.Lambda, p.LambdaMin)
	}
	if math.Abs(coh.Mean) > p.MeanAbsMax {
		t.Errorf("mean = %v, beyond accepted bound %v", coh.Mean, p.MeanAbsMax)
	}
	if coh.SignChanges < p.SignChangesMin || coh.SignChanges > p.SignChangesMax {
		t.Errorf("sign changes = %d, outside [%d, %d]",
			coh.SignChanges, p.SignChangesMin, p.SignChangesMax)
	}

	// Palindromic by construction: x[i] == x[n-1-i].
	for i := 0; i < p.N/2; i++ {
		if x[i] != x[p.N-1-i] {
			t.Fatalf("sample %d breaks the palindrome structure", i)
		}
	}

	// Unit RMS after centering.
	var ss float64
	for _, v := range x {
		ss += v * v
	}
	rms := math.Sqrt(ss / float64(p.N))
	if math.Abs(rms-1.0) > 1e-9 {
		t.Errorf("RMS = %v, want 1", rms)
	}
}

func TestGenerateCoherentExhaustedBudget(t *testing.T) {
	p := testConditionParams()
	p.LambdaMin = 1.1 // unattainable
	p.MaxAttempts = 5

	if _, _, err := GenerateCoherent(rand.New(rand.NewSource(1)), p); err == nil {
		t.Error("expected error when the attempt budget is exhausted")
	}
}

func TestGenerateCoherentBandTooSmall(t *testing.T) {
	p := testConditionParams()
	p.Band = 1e-6

	if _, _, err := GenerateCoherent(rand.New(rand.NewSource(1)), p); err == nil {
		t.Error("expected error when the band contains no frequency bins")
	}
}

func TestBinarize(t *testing.T) {
	got := Binarize([]float64{-0.5, 0, 0.3, -2})
	want := []float64{-1, 1, 1, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Binarize[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRandomBinValues(t *testing.T) {
	x := RandomBin(rand.New(rand.NewSource(4)), 256)
	if len(x) != 256 {
		t.Fatalf("got %d samples, want 256", len(x))
	}
	for i, v := range x {
		if v != 1 && v != -1 {
			t.Fatalf("sample %d = %v, want +-1", i, v)
		}
	}
}

func TestPalindromeBinStructure(t *testing.T) {
	n := 64
	x := PalindromeBin(rand.New(rand.NewSource(4)), n)
	if len(x) != n {
		t.Fatalf("got %d samples, want %d", len(x), n)
	}
	for i := 0; i < n/2; i++ {
		if x[i] != x[n-1-i] {
			t.Fatalf("sample %d breaks the palindrome structure", i)
		}
	}
}

func TestRoll(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	cases := []struct {
		k    int
		want []float64
	}{
		{0, []float64{1, 2, 3, 4}},
		{1, []float64{2, 3, 4, 1}},
		{4, []float64{1, 2, 3, 4}},
		{-1, []float64{4, 1, 2, 3}},
	}
	for _, tc := range cases {
		got := Roll(x, tc.k)
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("Roll(k=%d)[%d] = %v, want %v", tc.k, i, got[i], tc.want[i])
			}
		}
	}
}

// TestRotationEnergyConstantSignal: a constant +-1 signal is invariant
// under rotation, so E(k) = 0 at every step.
func TestRotationEnergyConstantSignal(t *testing.T) {
	x := make([]float64, 64)
	for i := range x {
		x[i] = 1
	}

	theta2, energy := RotationEnergy(x, SmallAngleGrid())
	if len(theta2) != len(SmallAngleGrid()) {
		t.Fatalf("grid length mismatch")
	}
	if theta2[0] != 0 {
		t.Errorf("theta^2 at k=0 = %v, want 0", theta2[0])
	}
	for i, e := range energy {
		if math.Abs(e) > 1e-12 {
			t.Errorf("E at grid point %d = %v, want 0", i, e)
		}
	}
}

// TestRotationEnergyAlternatingSignal: rotating an alternating +-1 signal
// by one step flips every sample, giving the maximal E(1) = 4.
func TestRotationEnergyAlternatingSignal(t *testing.T) {
	x := make([]float64, 64)
	for i := range x {
		if i%2 == 0 {
			x[i] = 1
		} else {
			x[i] = -1
		}
	}

	_, energy := RotationEnergy(x, []int{0, 1, 2})
	if math.Abs(energy[0]) > 1e-12 {
		t.Errorf("E(0) = %v, want 0", energy[0])
	}
	if math.Abs(energy[1]-4.0) > 1e-12 {
		t.Errorf("E(1) = %v, want 4", energy[1])
	}
	if math.Abs(energy[2]) > 1e-12 {
		t.Errorf("E(2) = %v, want 0", energy[2])
	}
}

// TestCoherentSmallAngleQuadratic: an accepted coherent binarized signal
// must show the quadratic small-angle signature the baseline condition is
// defined by.
func TestCoherentSmallAngleQuadratic(t *testing.T) {
	p := testConditionParams()
	p.N = 512
	r := rand.New(rand.NewSource(12))

	x, _, err := GenerateCoherent(r, p)
	if err != nil {
		t.Fatalf("GenerateCoherent failed: %v", err)
	}

	theta2, energy := RotationEnergy(Binarize(x), SmallAngleGrid())
	fit := stats.FitWithIntercept(theta2, energy)
	if fit.R2 < 0.5 {
		t.Errorf("R2 = %v, expected a clear quadratic signature", fit.R2)
	}
	if fit.Slope <= 0 {
		t.Errorf("slope = %v, expected energy to grow with theta^2", fit.Slope)
	}
}
