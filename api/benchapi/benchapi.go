// Package benchapi defines the JSON types exchanged between the benchmark
// agent and its clients.
package benchapi

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"
)

type WorkerStatus[T any] struct {
	Code StatusCode `json:"code"`
	Task TaskName   `json:"task,omitempty"`
	Last *T         `json:"last,omitempty"`
}

type APIWorkerStatus = WorkerStatus[Result[any]]

type StatusCode string

const (
	StatusIdle         StatusCode = "Idle"
	StatusBusy         StatusCode = "Busy"
	StatusDisconnected StatusCode = "Disconnected"
)

type TaskName string

const (
	TaskRun    TaskName = "dbbench/run"
	TaskABTest TaskName = "dbbench/abtest"
)

type Result[T any] struct {
	Value T     `json:"value,omitempty"`
	Error error `json:"error,omitempty"`
}

func (r *Result[T]) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(map[string]string{
			"error": r.Error.Error(),
		})
	}
	var zero T
	if reflect.DeepEqual(r.Value, zero) {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any{
		"value": r.Value,
	})
}

func (r *Result[T]) UnmarshalJSON(b []byte) error {
	*r = Result[T]{}

	tmp := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}

	if v, ok := tmp["error"]; ok {
		var errStr string
		if err := json.Unmarshal(v, &errStr); err != nil {
			return err
		}
		r.Error = errors.New(errStr)
	}
	if v, ok := tmp["value"]; ok {
		if err := json.Unmarshal(v, &r.Value); err != nil {
			return err
		}
	}
	return nil
}

// CollectValues extracts the successful results from a set of worker
// statuses.
func CollectValues[T any](status []WorkerStatus[Result[T]]) []T {
	results := make([]T, 0, len(status))
	for _, s := range status {
		if s.Last != nil && s.Last.Error == nil {
			results = append(results, s.Last.Value)
		}
	}
	return results
}

// Duration marshals as a time.ParseDuration string ("30s") and accepts
// either that form or raw nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return errors.New("invalid duration")
	}
}
