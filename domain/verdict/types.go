package verdict

import (
	"replipack/domain/core"
)

// Status is the closed tri-state outcome of a verification run. It is a
// tagged type, not a boolean with a reason string: NOT_COMPARABLE can never
// be mistaken for a graceful FAIL.
type Status string

const (
	StatusPass          Status = "OFFICIAL_REPLICATION_PASS"
	StatusFail          Status = "OFFICIAL_REPLICATION_FAIL"
	StatusNotComparable Status = "NOT_COMPARABLE"
)

// ConditionRole distinguishes the baseline from the negative controls.
type ConditionRole string

const (
	RoleBaseline        ConditionRole = "baseline"
	RoleNegativeControl ConditionRole = "negative_control"
)

// Check is one tolerance comparison between a measured value and its
// reference. For negative controls OK means the control correctly fails the
// quadratic-fit check.
type Check struct {
	Name      string  `json:"name"`
	Measured  float64 `json:"measured"`
	Reference float64 `json:"reference"`
	Tolerance float64 `json:"tolerance"`
	Relative  bool    `json:"relative,omitempty"`
	OK        bool    `json:"ok"`
}

// FitResult is the measured outcome for one condition: metric values plus
// the per-metric checks against the reference. Recomputed fresh on every
// verification run, never fed back into generation.
type FitResult struct {
	Condition core.Condition     `json:"condition"`
	Role      ConditionRole      `json:"role"`
	Metrics   map[string]float64 `json:"metrics"`
	Checks    []Check            `json:"checks"`

	// Anomaly is set when a negative control unexpectedly passes the
	// quadratic-fit check. Reported, never silently ignored.
	Anomaly bool `json:"anomaly,omitempty"`
}

// Passed reports whether every check met its expected outcome.
func (f FitResult) Passed() bool {
	if len(f.Checks) == 0 {
		return false
	}
	for _, c := range f.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Verdict is the final classification, carrying the fit results that
// produced it. Immutable once emitted.
type Verdict struct {
	Status  Status      `json:"status"`
	Reason  string      `json:"reason,omitempty"`
	Results []FitResult `json:"results,omitempty"`
}

// ExitCode maps the verdict to the process exit status: PASS is zero,
// everything else is nonzero and FAIL is distinguishable from
// NOT_COMPARABLE.
func (v Verdict) ExitCode() int {
	switch v.Status {
	case StatusPass:
		return 0
	case StatusFail:
		return 1
	default:
		return 2
	}
}
