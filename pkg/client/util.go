package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"golang.org/x/sync/errgroup"

	"dbbenchtools/api/benchapi"
	"dbbenchtools/pkg/timeutil"
)

var ErrBusy = errors.New("agent is busy")

const idlePollInterval = 10 * time.Second

type parallelExec[T any] struct {
	items  []T
	active int
}

func (e parallelExec[T]) Active(i int) parallelExec[T] {
	e.active = i
	return e
}

func (e parallelExec[T]) Do(ctx context.Context, fn func(context.Context, T) error) error {
	var errs []error
	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.active)

	for _, item := range e.items {
		eg.Go(func() error {
			err := fn(ctx, item)
			if err != nil {
				mu.Lock()
				defer mu.Unlock()
				errs = append(errs, err)
			}
			return err
		})
	}

	eg.Wait()
	return errors.Join(errs...)
}

func eachParallel[T any](items []T) parallelExec[T] {
	return parallelExec[T]{items: items, active: -1}
}

type resultCollector[T any] struct {
	client   *http.Client
	path     []string
	Validate func(T) error
	Decoder  func(io.Reader) (T, error)
}

func jsonDecoder[T any](body io.Reader) (v T, err error) {
	err = json.NewDecoder(body).Decode(&v)
	return v, err
}

func promDecoder(body io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	return parser.TextToMetricFamilies(body)
}

func (c *resultCollector[T]) Collect(ctx context.Context, agents []*url.URL, wait bool) (report []T, err error) {
	eg, ctx := errgroup.WithContext(ctx)
	ch := make(chan T, 1)

	report = make([]T, 0, len(agents))
	eg.Go(func() error {
		for ctx.Err() == nil && len(report) < cap(report) {
			select {
			case <-ctx.Done():
				return nil
			case r := <-ch:
				report = append(report, r)
			}
		}
		return nil
	})

	eg.Go(func() error {
		fetchStatus := func(ctx context.Context, agent *url.URL) error {
			u := agent.JoinPath(c.path...)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return err
			}
			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("get %s: %w", u, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("request failed: %s", resp.Status)
			}

			var status T
			if c.Decoder == nil {
				status, err = jsonDecoder[T](resp.Body)
			} else {
				status, err = c.Decoder(resp.Body)
			}
			if err != nil {
				return fmt.Errorf("decode response: %w", err)
			}

			if c.Validate != nil {
				if err := c.Validate(status); err != nil {
					return err
				}
			}

			select {
			case ch <- status:
			case <-ctx.Done():
			}

			return nil
		}

		fetchRunner := eachParallel(agents)
		if !wait {
			return fetchRunner.Do(ctx, fetchStatus)
		}
		return fetchRunner.Do(ctx, func(ctx context.Context, agent *url.URL) error {
			if err := fetchStatus(ctx, agent); !errors.Is(err, ErrBusy) {
				return err
			}
			for range timeutil.IterTick(ctx, idlePollInterval) {
				if err := fetchStatus(ctx, agent); !errors.Is(err, ErrBusy) {
					return err
				}
			}
			return ctx.Err()
		})
	})

	err = eg.Wait()
	return report, err
}

func validateStatus[T any](opName benchapi.TaskName, allowError bool) func(benchapi.WorkerStatus[benchapi.Result[T]]) error {
	return func(status benchapi.WorkerStatus[benchapi.Result[T]]) error {
		if status.Task == "" {
			return errors.New("no benchmark task results found")
		}
		if status.Code == benchapi.StatusBusy {
			return ErrBusy
		}
		if status.Task != opName {
			return fmt.Errorf("no %s status found, last task is %s", opName, status.Task)
		}
		if status.Last == nil {
			return fmt.Errorf("%v finished without results", opName)
		}
		if status.Last.Error != nil && !allowError {
			return fmt.Errorf("op %v: last task failed: %s", opName, status.Last.Error)
		}
		return nil
	}
}
