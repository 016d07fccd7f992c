package generator

import (
	"math/rand"

	"replipack/domain/artefact"
	"replipack/domain/core"
	"replipack/domain/stats"
)

// SuiteResult holds the per-condition fit summaries of one condition-suite
// run, in suite order: baseline first, then the negative controls.
type SuiteResult struct {
	Summaries []stats.ConditionSummary
	Coherence []CoherenceMetrics
}

// Summary returns the summary for a condition.
func (s *SuiteResult) Summary(cond core.Condition) (stats.ConditionSummary, bool) {
	for _, row := range s.Summaries {
		if row.Condition == cond {
			return row, true
		}
	}
	return stats.ConditionSummary{}, false
}

// RunSuite executes the condition suite: per replicate it generates one
// accepted coherent signal plus both negative controls from a single
// deterministic stream, computes the rotation-energy series over the
// small-angle grid, and fits E against theta^2 through the origin and with
// an intercept. Draw order is fixed (coherent, random, palindrome) so the
// whole suite replays bit-identically for a given stream.
func RunSuite(r *rand.Rand, p artefact.ConditionParams) (*SuiteResult, error) {
	grid := SmallAngleGrid()

	type fits struct {
		origins []stats.OriginFit
		linears []stats.LinearFit
	}
	byCondition := map[core.Condition]*fits{
		artefact.BaselineCondition:      {},
		artefact.ConditionRandomBin:     {},
		artefact.ConditionPalindromeBin: {},
	}
	coherence := make([]CoherenceMetrics, 0, p.Replicates)

	record := func(cond core.Condition, x []float64) {
		theta2, energy := RotationEnergy(x, grid)
		f := byCondition[cond]
		f.origins = append(f.origins, stats.FitThroughOrigin(theta2, energy))
		f.linears = append(f.linears, stats.FitWithIntercept(theta2, energy))
	}

	for rep := 0; rep < p.Replicates; rep++ {
		x, coh, err := GenerateCoherent(r, p)
		if err != nil {
			return nil, err
		}
		coherence = append(coherence, coh)

		record(artefact.BaselineCondition, Binarize(x))
		record(artefact.ConditionRandomBin, RandomBin(r, p.N))
		record(artefact.ConditionPalindromeBin, PalindromeBin(r, p.N))
	}

	order := append([]core.Condition{artefact.BaselineCondition}, artefact.NegativeControls()...)
	result := &SuiteResult{Coherence: coherence}
	for _, cond := range order {
		f := byCondition[cond]
		result.Summaries = append(result.Summaries, stats.SummarizeFits(cond, f.origins, f.linears))
	}
	return result, nil
}
