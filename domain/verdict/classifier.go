package verdict

import (
	"fmt"
	"strings"
)

// Classify is a pure function of the fit-result set. The completeness gate
// runs first: when required files are missing or unreadable the verdict is
// NOT_COMPARABLE regardless of any metric value, and the PASS/FAIL logic is
// never evaluated.
func Classify(results []FitResult, missing []string) Verdict {
	if len(missing) > 0 {
		return Verdict{
			Status: StatusNotComparable,
			Reason: fmt.Sprintf("missing or malformed required files: %s", strings.Join(missing, ", ")),
		}
	}

	if len(results) == 0 {
		return Verdict{
			Status: StatusNotComparable,
			Reason: "no fit results to classify",
		}
	}

	hasBaseline := false
	var failed []string
	for _, r := range results {
		if r.Role == RoleBaseline {
			hasBaseline = true
		}
		if !r.Passed() {
			failed = append(failed, string(r.Condition))
		}
	}
	if !hasBaseline {
		return Verdict{
			Status:  StatusNotComparable,
			Reason:  "baseline condition absent from fit results",
			Results: results,
		}
	}

	if len(failed) > 0 {
		return Verdict{
			Status:  StatusFail,
			Reason:  fmt.Sprintf("conditions not meeting expected outcome: %s", strings.Join(failed, ", ")),
			Results: results,
		}
	}

	return Verdict{Status: StatusPass, Results: results}
}
