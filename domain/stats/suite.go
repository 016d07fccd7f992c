package stats

import (
	"replipack/domain/core"
)

// ConditionSummary aggregates per-replicate quadratic fits for one
// condition: the rows of tables/fit_summary_by_condition.csv.
type ConditionSummary struct {
	Condition      core.Condition `json:"condition"`
	Replicates     int            `json:"replicates"`
	BetaOriginMean float64        `json:"beta_origin_mean"`
	BetaOriginStd  float64        `json:"beta_origin_std"`
	R2OriginMean   float64        `json:"r2_origin_mean"`
	R2OriginStd    float64        `json:"r2_origin_std"`
	SlopeMean      float64        `json:"slope_mean"`
	SlopeStd       float64        `json:"slope_std"`
	InterceptMean  float64        `json:"intercept_mean"`
	InterceptStd   float64        `json:"intercept_std"`
	R2Mean         float64        `json:"r2_mean"`
	R2Std          float64        `json:"r2_std"`
}

// SummarizeFits reduces the per-replicate fits of one condition.
func SummarizeFits(cond core.Condition, origins []OriginFit, linears []LinearFit) ConditionSummary {
	betas := make([]float64, len(origins))
	r2o := make([]float64, len(origins))
	for i, f := range origins {
		betas[i] = f.Beta
		r2o[i] = f.R2
	}
	slopes := make([]float64, len(linears))
	intercepts := make([]float64, len(linears))
	r2s := make([]float64, len(linears))
	for i, f := range linears {
		slopes[i] = f.Slope
		intercepts[i] = f.Intercept
		r2s[i] = f.R2
	}

	s := ConditionSummary{Condition: cond, Replicates: len(origins)}
	s.BetaOriginMean, s.BetaOriginStd = MeanStd(betas)
	s.R2OriginMean, s.R2OriginStd = MeanStd(r2o)
	s.SlopeMean, s.SlopeStd = MeanStd(slopes)
	s.InterceptMean, s.InterceptStd = MeanStd(intercepts)
	s.R2Mean, s.R2Std = MeanStd(r2s)
	return s
}

// ReferenceMetrics are the published baseline values a replication is
// compared against.
type ReferenceMetrics struct {
	R2Mean         float64 `json:"r2_mean"`
	R2Std          float64 `json:"r2_std"`
	BetaOriginMean float64 `json:"beta_origin_mean"`
	R2OriginMean   float64 `json:"r2_origin_mean"`
}

// ReferenceSet maps condition name to its reference metrics.
type ReferenceSet map[string]ReferenceMetrics
