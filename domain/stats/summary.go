package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"

	"replipack/domain/core"
)

// LevelSummary holds the descriptive statistics of one level's samples,
// sample-variance convention (ddof=1) throughout.
type LevelSummary struct {
	Level core.LevelID `json:"level"`
	N     int          `json:"n"`
	Mean  float64      `json:"mean"`
	Std   float64      `json:"std"`
}

// Summarize computes the per-level summary.
func Summarize(level core.LevelID, samples []float64) (LevelSummary, error) {
	if len(samples) < 2 {
		return LevelSummary{}, core.NewInsufficientSamplesError(level.String(), len(samples))
	}
	mean, err := mstats.Mean(samples)
	if err != nil {
		return LevelSummary{}, err
	}
	std, err := mstats.StandardDeviationSample(samples)
	if err != nil {
		return LevelSummary{}, err
	}
	return LevelSummary{Level: level, N: len(samples), Mean: mean, Std: std}, nil
}

// MeanStd returns the mean and sample standard deviation of a series,
// treating errors from degenerate input as NaN rather than failing: summary
// tables report what was measurable.
func MeanStd(values []float64) (float64, float64) {
	mean, err := mstats.Mean(values)
	if err != nil {
		mean = math.NaN()
	}
	std, err := mstats.StandardDeviationSample(values)
	if err != nil {
		std = math.NaN()
	}
	return mean, std
}

// SampleVariance computes variance with divisor n-1.
func SampleVariance(values []float64) (float64, error) {
	return mstats.SampleVariance(values)
}
