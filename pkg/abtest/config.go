package abtest

import "dbbenchtools/pkg/dbbench"

// Default check parameters. Benchmark comparisons should be hard to pass
// by accident, hence the high confidence level.
const (
	DefaultIterations       = 30
	DefaultWarmupIterations = 5
	DefaultConfidence       = 0.999
	DefaultMaxIntervalFrac  = 0.10
	DefaultHistogramBuckets = 15
)

// Options tune how each query comparison is driven and judged.
type Options struct {
	// Iterations is the number of measured executions per query and side.
	Iterations int `json:"iterations" yaml:"iterations"`

	// WarmupIterations run before measurement starts and are not recorded.
	WarmupIterations int `json:"warmup_iterations" yaml:"warmup_iterations"`

	// Confidence is the level for interval widths and the regression
	// t-test, e.g. 0.999.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// MaxIntervalFrac caps the confidence interval width as a fraction of
	// the sample mean; wider samples are too noisy to judge.
	MaxIntervalFrac float64 `json:"max_interval_frac" yaml:"max_interval_frac"`

	HistogramBuckets int `json:"histogram_buckets" yaml:"histogram_buckets"`

	// FatalExecErrors aborts the whole suite when a dbbench run fails
	// instead of marking the query failed and moving on.
	FatalExecErrors bool `json:"fatal_exec_errors" yaml:"fatal_exec_errors"`
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.WarmupIterations < 0 {
		o.WarmupIterations = DefaultWarmupIterations
	}
	if o.Confidence <= 0 || o.Confidence >= 1 {
		o.Confidence = DefaultConfidence
	}
	if o.MaxIntervalFrac <= 0 {
		o.MaxIntervalFrac = DefaultMaxIntervalFrac
	}
	if o.HistogramBuckets <= 0 {
		o.HistogramBuckets = DefaultHistogramBuckets
	}
	return o
}

// Side is one of the two configurations under comparison.
type Side struct {
	Name string           `json:"name" yaml:"name"`
	Spec dbbench.ConnSpec `json:"spec" yaml:"spec"`

	// Setup queries run once per workload before the warmup, e.g. to set
	// session variables.
	Setup []string `json:"setup,omitempty" yaml:"setup"`
}

// Suite is a full comparison: queries are tested one by one against side A
// (the baseline) and side B (the candidate). The suite regresses if any
// query does.
type Suite struct {
	A       Side     `json:"a" yaml:"a"`
	B       Side     `json:"b" yaml:"b"`
	Queries []string `json:"queries" yaml:"queries"`
	Options Options  `json:"options" yaml:"options"`
}
