package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// OriginFit is a least-squares fit of y = beta*x through the origin.
type OriginFit struct {
	Beta float64 `json:"beta"`
	R2   float64 `json:"r2"`
}

// LinearFit is an ordinary least-squares fit of y = intercept + slope*x.
type LinearFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// FitThroughOrigin solves y = beta*x by least squares with no intercept.
// beta = <x,y>/<x,x>; degenerate x yields NaN.
func FitThroughOrigin(x, y []float64) OriginFit {
	var xx, xy float64
	for i := range x {
		xx += x[i] * x[i]
		xy += x[i] * y[i]
	}
	if xx == 0 {
		return OriginFit{Beta: math.NaN(), R2: math.NaN()}
	}
	beta := xy / xx

	yhat := make([]float64, len(y))
	for i := range x {
		yhat[i] = beta * x[i]
	}
	return OriginFit{Beta: beta, R2: RSquared(y, yhat)}
}

// FitWithIntercept performs OLS of y on x.
func FitWithIntercept(x, y []float64) LinearFit {
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	yhat := make([]float64, len(y))
	for i := range x {
		yhat[i] = intercept + slope*x[i]
	}
	return LinearFit{Slope: slope, Intercept: intercept, R2: RSquared(y, yhat)}
}

// RSquared is the coefficient of determination of yhat against y.
// Returns NaN when y has zero total variance.
func RSquared(y, yhat []float64) float64 {
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i := range y {
		r := y[i] - yhat[i]
		ssRes += r * r
		d := y[i] - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}
