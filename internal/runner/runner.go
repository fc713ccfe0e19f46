// Package runner owns the single benchmark slot of an agent. All task
// submission, status and cancellation go through one goroutine so that
// at most one dbbench invocation is active at a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"dbbenchtools/api/benchapi"
	"dbbenchtools/pkg/dbbench"
)

// Config holds the agent-side defaults applied to incoming work.
type Config struct {
	// Target database used when a request does not override the
	// connection.
	Conn dbbench.ConnSpec

	// Execution settings for the dbbench binary.
	Bench dbbench.Runner

	// Optional outcome metrics.
	Metrics *Metrics
}

// Task is a unit of work executed by the runner loop.
type Task struct {
	Name benchapi.TaskName
	Task func(context.Context) (any, error)
}

type Runner struct {
	Config Config
	ch     chan any
	chRet  chan any
}

func New(cfg Config) *Runner {
	return &Runner{
		Config: cfg,
		ch:     make(chan any, 1),
		chRet:  make(chan any),
	}
}

func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	var activeTask func(context.Context) (any, error)
	var taskCh chan benchapi.Result[any]
	var cancelTask context.CancelFunc
	var lastName benchapi.TaskName
	var lastResult *benchapi.Result[any]

	defer func() {
		if cancelTask != nil {
			cancelTask()
		}
		wg.Wait()
	}()

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			return
		case result := <-taskCh:
			lastResult = &result
			cancelTask = nil
			activeTask = nil
			logrus.Infof("Task %q finished", lastName)
			logrus.Info("Runner is now idle")

		case cmd := <-r.ch:
			switch cmd := cmd.(type) {
			case statusCommand:
				code := benchapi.StatusIdle
				if activeTask != nil {
					code = benchapi.StatusBusy
				}

				r.chRet <- benchapi.WorkerStatus[benchapi.Result[any]]{
					Code: code,
					Task: lastName,
					Last: lastResult,
				}
			case stopCommand:
				if cancelTask != nil {
					cancelTask()
					cancelTask = nil
				}
				r.chRet <- nil
			case healthCommand:
				if activeTask != nil {
					// An active task reports its own errors.
					r.chRet <- healthResponse{StatusCode: benchapi.StatusBusy}
				} else {
					status := benchapi.StatusIdle
					err := pingTarget(ctx, r.Config.Conn)
					if err != nil {
						status = benchapi.StatusDisconnected
					}
					r.chRet <- healthResponse{StatusCode: status, Error: err}
				}

			case Task:
				if activeTask != nil {
					r.chRet <- benchapi.ErrorBusy(errors.New("runner is busy"))
					continue
				}

				lastResult = nil
				lastName = cmd.Name
				activeTask = cmd.Task
				taskCh = make(chan benchapi.Result[any])
				r.chRet <- nil

				var taskCtx context.Context
				taskCtx, cancelTask = context.WithCancel(ctx)

				logrus.Infof("Starting task %q", lastName)
				logrus.Info("Runner is now busy")

				wg.Add(1)
				go func() {
					defer wg.Done()

					v, err := func() (v any, err error) {
						defer recoverError(&err)
						return cmd.Task(taskCtx)
					}()
					if err != nil {
						logrus.WithError(err).Errorf("Task %q failed", cmd.Name)
					}

					taskCh <- benchapi.Result[any]{
						Value: v,
						Error: err,
					}
				}()
			}
		}
	}
}

func pingTarget(ctx context.Context, spec dbbench.ConnSpec) error {
	db, err := spec.Open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

func (r *Runner) Healthcheck(ctx context.Context) (benchapi.StatusCode, error) {
	select {
	case r.ch <- healthCommand{}:
		resp := castNotNil[healthResponse](<-r.chRet)
		return resp.StatusCode, resp.Error
	case <-ctx.Done():
		return benchapi.StatusDisconnected, ctx.Err()
	}
}

func (r *Runner) Status(ctx context.Context) (status benchapi.WorkerStatus[benchapi.Result[any]]) {
	select {
	case r.ch <- statusCommand{}:
		return castNotNil[benchapi.WorkerStatus[benchapi.Result[any]]](<-r.chRet)
	case <-ctx.Done():
		return status
	}
}

func (r *Runner) CancelActive(ctx context.Context) error {
	select {
	case r.ch <- stopCommand{}:
		return castNotNil[error](<-r.chRet)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) sendTask(ctx context.Context, cmd Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case r.ch <- cmd:
		return castNotNil[error](<-r.chRet)
	case <-ctx.Done():
		return ctx.Err()
	}
}

type (
	stopCommand    struct{}
	statusCommand  struct{}
	healthCommand  struct{}
	healthResponse struct {
		StatusCode benchapi.StatusCode
		Error      error
	}
)

func castNotNil[T any](v any) (zero T) {
	if v == nil {
		return zero
	}
	ret, ok := v.(T)
	if !ok {
		panic(fmt.Errorf("unexpected type %T, expected %T", v, zero))
	}
	return ret
}

func recoverError(err *error) {
	if r := recover(); r != nil {
		logrus.Errorf("Runner: recovered from panic: %v", r)
		debug.PrintStack()

		if *err == nil {
			if e, ok := r.(error); ok {
				*err = e
			} else {
				*err = fmt.Errorf("%v", r)
			}
		}
	}
}
