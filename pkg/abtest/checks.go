package abtest

import (
	"fmt"

	"dbbenchtools/pkg/stats"
)

// Check is the outcome of one acceptance check on a query comparison.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// checkVariance rejects comparisons where either side's confidence
// interval is too wide relative to its mean to support a conclusion.
func checkVariance(opts Options, a, b SideRun) Check {
	check := Check{Name: "variance", Passed: true}
	if len(a.Samples) <= 1 || len(b.Samples) <= 1 {
		return Check{Name: "variance", Detail: "insufficient samples to check variance"}
	}

	for _, side := range []SideRun{a, b} {
		mean := stats.Mean(side.Samples)
		width := stats.ConfidenceIntervalWidth(side.Samples, opts.Confidence)
		if mean > 0 && width > mean*opts.MaxIntervalFrac {
			check.Passed = false
			check.Detail = fmt.Sprintf(
				"confidence interval width for %s (%.1f%% of mean) exceeds %.1f%%",
				side.Name, 100*width/mean, 100*opts.MaxIntervalFrac)
		}
	}
	return check
}

// checkMean runs Welch's two sample t-test. The comparison fails only when
// the candidate is significantly slower than the baseline; a significant
// improvement or an inconclusive result passes.
func checkMean(opts Options, baseline, candidate SideRun) Check {
	_, p := stats.WelchTTest(candidate.Samples, baseline.Samples)
	if p >= 1-opts.Confidence {
		return Check{Name: "mean", Passed: true, Detail: "too much variance to make a conclusion"}
	}

	baseMean := stats.Mean(baseline.Samples)
	candMean := stats.Mean(candidate.Samples)
	switch {
	case candMean > baseMean:
		pct := 100 * (candMean - baseMean) / baseMean
		return Check{Name: "mean", Detail: fmt.Sprintf("execution regressed by %.1f%%", pct)}
	case candMean < baseMean:
		pct := 100 * (baseMean - candMean) / candMean
		return Check{Name: "mean", Passed: true, Detail: fmt.Sprintf("execution improved by %.1f%%", pct)}
	default:
		return Check{Name: "mean", Passed: true, Detail: fmt.Sprintf("means equal with significant p value (%f)", p)}
	}
}

// Compare judges two completed sample sets without running anything. The
// standalone stats analysis command feeds it samples parsed from a CSV.
func Compare(opts Options, baseline, candidate SideRun) []Check {
	opts = opts.WithDefaults()
	return []Check{
		checkVariance(opts, baseline, candidate),
		checkMean(opts, baseline, candidate),
	}
}

// Passed reports whether every check passed.
func Passed(checks []Check) bool {
	for _, c := range checks {
		if !c.Passed {
			return false
		}
	}
	return true
}
