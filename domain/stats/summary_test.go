package stats

import (
	"math"
	"testing"
)

// TestSummarize checks the sample-variance (n-1) convention explicitly:
// {2, 4, 6} has mean 4 and sample std 2.
func TestSummarize(t *testing.T) {
	sum, err := Summarize("ctrl", []float64{2, 4, 6})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if sum.N != 3 {
		t.Errorf("N = %d, want 3", sum.N)
	}
	if math.Abs(sum.Mean-4.0) > 1e-12 {
		t.Errorf("mean = %v, want 4", sum.Mean)
	}
	if math.Abs(sum.Std-2.0) > 1e-12 {
		t.Errorf("std = %v, want 2 (sample convention)", sum.Std)
	}
}

func TestSummarizeInsufficientSamples(t *testing.T) {
	if _, err := Summarize("ctrl", []float64{1}); err == nil {
		t.Error("expected error for a single sample")
	}
}

// TestMeanStdDegenerate: degenerate input reports NaN instead of failing.
func TestMeanStdDegenerate(t *testing.T) {
	mean, std := MeanStd(nil)
	if !math.IsNaN(mean) || !math.IsNaN(std) {
		t.Errorf("expected NaN for empty input, got mean=%v std=%v", mean, std)
	}
}

func TestSampleVariance(t *testing.T) {
	v, err := SampleVariance([]float64{2, 4, 6})
	if err != nil {
		t.Fatalf("SampleVariance failed: %v", err)
	}
	if math.Abs(v-4.0) > 1e-12 {
		t.Errorf("variance = %v, want 4 (divisor n-1)", v)
	}
}

// TestSummarizeFits aggregates known fits into the summary row.
func TestSummarizeFits(t *testing.T) {
	origins := []OriginFit{
		{Beta: 1.0, R2: 0.9},
		{Beta: 3.0, R2: 0.7},
	}
	linears := []LinearFit{
		{Slope: 0.5, Intercept: 0.1, R2: 0.8},
		{Slope: 1.5, Intercept: 0.3, R2: 0.6},
	}

	row := SummarizeFits("coherent_bin_clean", origins, linears)
	if row.Replicates != 2 {
		t.Errorf("replicates = %d, want 2", row.Replicates)
	}
	if math.Abs(row.BetaOriginMean-2.0) > 1e-12 {
		t.Errorf("beta_origin_mean = %v, want 2", row.BetaOriginMean)
	}
	if math.Abs(row.R2OriginMean-0.8) > 1e-12 {
		t.Errorf("r2_origin_mean = %v, want 0.8", row.R2OriginMean)
	}
	if math.Abs(row.R2Mean-0.7) > 1e-12 {
		t.Errorf("r2_mean = %v, want 0.7", row.R2Mean)
	}
	// Sample std of {0.8, 0.6} is sqrt(0.02).
	if math.Abs(row.R2Std-math.Sqrt(0.02)) > 1e-12 {
		t.Errorf("r2_std = %v, want %v", row.R2Std, math.Sqrt(0.02))
	}
}
