// Package abtest compares query execution performance between two
// database configurations by driving dbbench workloads against both and
// testing the timing samples for regressions.
package abtest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"dbbenchtools/pkg/dbbench"
	"dbbenchtools/pkg/stats"
)

// SideRun holds one side's measured samples for a single query, in
// milliseconds, along with display-ready derived values.
type SideRun struct {
	Name      string          `json:"name"`
	Samples   []float64       `json:"samples"`
	Mean      string          `json:"mean"`
	Histogram stats.Histogram `json:"histogram"`
}

// QueryResult is the outcome of comparing one query across both sides.
type QueryResult struct {
	Query     string  `json:"query"`
	Baseline  SideRun `json:"baseline"`
	Candidate SideRun `json:"candidate"`
	Checks    []Check `json:"checks,omitempty"`
	Passed    bool    `json:"passed"`

	// Err is set when a dbbench run failed and no comparison was made.
	Err string `json:"error,omitempty"`
}

// Harness runs A/B comparisons through a dbbench Runner.
type Harness struct {
	Runner *dbbench.Runner

	// WorkDir receives the generated query and workload files. Empty means
	// the system temp directory.
	WorkDir string
}

// Run tests every query in the suite. Side A is the baseline. A dbbench
// failure aborts the run when FatalExecErrors is set; otherwise the query
// is marked failed and the remaining queries still run, so one bad query
// does not hide other regressions. The progress callback, if non-nil, is
// invoked after each query completes.
func (h *Harness) Run(ctx context.Context, suite Suite, progress func(QueryResult)) ([]QueryResult, error) {
	opts := suite.Options.WithDefaults()

	results := make([]QueryResult, 0, len(suite.Queries))
	for _, query := range suite.Queries {
		result, err := h.TestQuery(ctx, suite.A, suite.B, query, opts)
		if err != nil {
			var execErr *dbbench.ExecError
			if errors.As(err, &execErr) && !opts.FatalExecErrors {
				logrus.WithField("query", query).Errorf("dbbench failed: %v", execErr)
				result = QueryResult{Query: query, Err: execErr.Error()}
			} else {
				return results, err
			}
		}
		results = append(results, result)
		if progress != nil {
			progress(result)
		}
	}
	return results, nil
}

// AllPassed reports whether every query result passed.
func AllPassed(results []QueryResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// TestQuery measures one query on both sides and judges the samples.
func (h *Harness) TestQuery(ctx context.Context, baseline, candidate Side, query string, opts Options) (QueryResult, error) {
	opts = opts.WithDefaults()
	logrus.WithField("query", query).Info("testing query")

	result := QueryResult{Query: query}

	logrus.Debugf("running %s", baseline.Name)
	baseSamples, err := h.runSide(ctx, baseline, query, opts)
	if err != nil {
		return result, fmt.Errorf("side %s: %w", baseline.Name, err)
	}

	logrus.Debugf("running %s", candidate.Name)
	candSamples, err := h.runSide(ctx, candidate, query, opts)
	if err != nil {
		return result, fmt.Errorf("side %s: %w", candidate.Name, err)
	}

	lo, hi := sharedLimits(baseSamples, candSamples)
	result.Baseline = newSideRun(baseline.Name, baseSamples, lo, hi, opts)
	result.Candidate = newSideRun(candidate.Name, candSamples, lo, hi, opts)
	result.Checks = []Check{
		checkVariance(opts, result.Baseline, result.Candidate),
		checkMean(opts, result.Baseline, result.Candidate),
	}
	result.Passed = Passed(result.Checks)
	return result, nil
}

// runSide executes the workload for one side and returns the measured
// elapsed times in milliseconds, in completion order.
func (h *Harness) runSide(ctx context.Context, side Side, query string, opts Options) ([]float64, error) {
	queryFile, err := h.writeArtifact("query-*.sql", func(f *os.File) error {
		_, err := f.WriteString(query + "\n")
		return err
	})
	if err != nil {
		return nil, err
	}
	if !h.retainArtifacts() {
		defer os.Remove(queryFile)
	}

	workloadFile, err := h.writeArtifact("workload-*.ini", func(f *os.File) error {
		return writeWorkload(f, workloadParams{
			QueryFile:  queryFile,
			Setup:      side.Setup,
			Warmup:     opts.WarmupIterations,
			Iterations: opts.Iterations,
		})
	})
	if err != nil {
		return nil, err
	}
	if !h.retainArtifacts() {
		defer os.Remove(workloadFile)
	}

	queryStats, err := h.Runner.Run(ctx, side.Spec, workloadFile)
	if err != nil {
		return nil, err
	}
	if len(queryStats) == 0 {
		return nil, fmt.Errorf("dbbench reported no statistics for %q", query)
	}
	return stats.Map(queryStats, dbbench.QueryStat.ElapsedMillis), nil
}

// writeArtifact creates a temp file and fills it. Artifacts follow the
// same retention rule as the runner's stats files: removed when the
// harness is done with them unless KeepArtifacts or debug logging asks for
// post-mortem copies.
func (h *Harness) writeArtifact(pattern string, fill func(*os.File) error) (string, error) {
	f, err := os.CreateTemp(h.WorkDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", pattern, err)
	}
	path := f.Name()

	err = fill(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if h.retainArtifacts() {
		logrus.WithField("file", path).Debug("retaining workload artifact")
	}
	return path, nil
}

func (h *Harness) retainArtifacts() bool {
	return (h.Runner != nil && h.Runner.KeepArtifacts) || logrus.IsLevelEnabled(logrus.DebugLevel)
}

func newSideRun(name string, samples []float64, lo, hi float64, opts Options) SideRun {
	return SideRun{
		Name:      name,
		Samples:   samples,
		Mean:      stats.MeanString(samples, opts.Confidence),
		Histogram: stats.NewHistogram(samples, lo, hi, opts.HistogramBuckets),
	}
}

// sharedLimits returns common histogram bounds so both sides render on the
// same scale.
func sharedLimits(a, b []float64) (lo, hi float64) {
	all := make([]float64, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	if len(all) == 0 {
		return 0, 0
	}
	lo, hi = all[0], all[0]
	for _, v := range all {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
