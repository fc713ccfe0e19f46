package runner

import (
	"context"
	"fmt"

	"dbbenchtools/api/benchapi"
	"dbbenchtools/pkg/abtest"
	"dbbenchtools/pkg/dbbench"
	"dbbenchtools/pkg/stats"
)

// SubmitRun queues a single dbbench run. It returns ErrorBusy if a task
// is already active.
func (r *Runner) SubmitRun(ctx context.Context, req benchapi.RunRequest) error {
	if req.ConfigPath == "" {
		return benchapi.ErrorBadRequest(fmt.Errorf("config_path is required"))
	}

	spec := mergeConn(r.Config.Conn, req.Conn)
	bench := r.Config.Bench
	if req.Timeout != nil {
		bench.Timeout = req.Timeout.Duration
	}

	var opts []dbbench.RunOption
	if req.BaseDir != "" {
		opts = append(opts, dbbench.WithBaseDir(req.BaseDir))
	}

	return r.sendTask(ctx, Task{
		Name: benchapi.TaskRun,
		Task: func(ctx context.Context) (any, error) {
			queries, err := bench.Run(ctx, spec, req.ConfigPath, opts...)
			r.Config.Metrics.observeOutcome(string(benchapi.TaskRun), err)
			if err != nil {
				return nil, err
			}
			r.Config.Metrics.observeQueries(queries)
			elapsed := stats.Map(queries, dbbench.QueryStat.ElapsedMillis)
			return benchapi.RunStats{
				Queries:   queries,
				ElapsedMS: stats.Summarize(elapsed, abtest.DefaultHistogramBuckets),
			}, nil
		},
	})
}

// SubmitABTest queues an A/B comparison suite.
func (r *Runner) SubmitABTest(ctx context.Context, req benchapi.ABTestRequest) error {
	suite := req.Suite
	if len(suite.Queries) == 0 {
		return benchapi.ErrorBadRequest(fmt.Errorf("suite has no queries"))
	}

	bench := r.Config.Bench
	if req.Timeout != nil {
		bench.Timeout = req.Timeout.Duration
	}
	suite.A.Spec = mergeConn(r.Config.Conn, &suite.A.Spec)
	suite.B.Spec = mergeConn(r.Config.Conn, &suite.B.Spec)

	return r.sendTask(ctx, Task{
		Name: benchapi.TaskABTest,
		Task: func(ctx context.Context) (any, error) {
			h := abtest.Harness{Runner: &bench, WorkDir: bench.WorkDir}
			results, err := h.Run(ctx, suite, nil)
			r.Config.Metrics.observeOutcome(string(benchapi.TaskABTest), err)
			if err != nil {
				return nil, err
			}
			return benchapi.ABTestStats{
				Results: results,
				Passed:  abtest.AllPassed(results),
			}, nil
		},
	})
}

// mergeConn fills unset override fields from the agent defaults.
func mergeConn(base dbbench.ConnSpec, override *dbbench.ConnSpec) dbbench.ConnSpec {
	if override == nil {
		return base.WithDefaults()
	}

	merged := *override
	if merged.Host == "" {
		merged.Host = base.Host
	}
	if merged.Port == 0 {
		merged.Port = base.Port
	}
	if merged.User == "" {
		merged.User = base.User
	}
	if merged.Password == "" {
		merged.Password = base.Password
	}
	if merged.Database == "" {
		merged.Database = base.Database
	}
	if merged.Driver == "" {
		merged.Driver = base.Driver
	}
	return merged.WithDefaults()
}
