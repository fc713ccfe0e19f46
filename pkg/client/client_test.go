package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbbenchtools/api/benchapi"
)

func newAgent(t *testing.T, handler http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func healthzAgent(t *testing.T, status benchapi.StatusCode) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(status)
	})
	return newAgent(t, mux)
}

func TestNewRequiresAgents(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestNewDefaultsScheme(t *testing.T) {
	cl, err := New([]string{"localhost:8080", "http://other:9090"})
	require.NoError(t, err)
	assert.Equal(t, 2, cl.NumAgents())
	assert.Equal(t, "http", cl.agents[0].Scheme)
}

func TestHealthcheckAllIdle(t *testing.T) {
	cl, err := New([]string{
		healthzAgent(t, benchapi.StatusIdle),
		healthzAgent(t, benchapi.StatusIdle),
	})
	require.NoError(t, err)

	idle, err := cl.Healthcheck(context.Background())
	require.NoError(t, err)
	assert.True(t, idle)
}

func TestHealthcheckBusyAgent(t *testing.T) {
	cl, err := New([]string{
		healthzAgent(t, benchapi.StatusIdle),
		healthzAgent(t, benchapi.StatusBusy),
	})
	require.NoError(t, err)

	idle, err := cl.Healthcheck(context.Background())
	require.NoError(t, err)
	assert.False(t, idle)
}

func TestRunPostsToAllAgents(t *testing.T) {
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req benchapi.RunRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/etc/bench/conf.ini", req.ConfigPath)

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/work/run", handler)
	cl, err := New([]string{newAgent(t, mux), newAgent(t, mux)})
	require.NoError(t, err)

	err = cl.Run(context.Background(), benchapi.RunRequest{ConfigPath: "/etc/bench/conf.ini"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunBusyAgent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/work/run", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"runner is busy"}`)
	})
	cl, err := New([]string{newAgent(t, mux)})
	require.NoError(t, err)

	err = cl.Run(context.Background(), benchapi.RunRequest{ConfigPath: "x"})
	require.ErrorIs(t, err, ErrBusy)
}

func statusAgent(t *testing.T, body string) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
	return newAgent(t, mux)
}

func TestRunResults(t *testing.T) {
	body := `{
		"code": "Idle",
		"task": "dbbench/run",
		"last": {"value": {
			"queries": [{"name":"q1","start_us":0,"elapsed_us":500,"rows_affected":10}],
			"elapsed_ms": {"count":1,"sum":0.5,"min":0.5,"max":0.5,"mean":0.5,"median":0.5,"stddev":0,"histogram":{"lo":0.5,"hi":0.5,"counts":[1]}}
		}}
	}`
	cl, err := New([]string{statusAgent(t, body)})
	require.NoError(t, err)

	results, err := cl.RunResults(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Last)
	require.Len(t, results[0].Last.Value.Queries, 1)
	assert.Equal(t, "q1", results[0].Last.Value.Queries[0].Name)
	assert.Equal(t, uint64(500), results[0].Last.Value.Queries[0].ElapsedMicros)
}

func TestRunResultsBusy(t *testing.T) {
	cl, err := New([]string{statusAgent(t, `{"code":"Busy","task":"dbbench/run"}`)})
	require.NoError(t, err)

	_, err = cl.RunResults(context.Background(), false)
	require.ErrorIs(t, err, ErrBusy)
}

func TestRunResultsWrongTask(t *testing.T) {
	cl, err := New([]string{statusAgent(t, `{"code":"Idle","task":"dbbench/abtest","last":{}}`)})
	require.NoError(t, err)

	_, err = cl.RunResults(context.Background(), false)
	require.Error(t, err)
}

func TestMetrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# TYPE dbbench_runs_ok counter\ndbbench_runs_ok{task=\"dbbench/run\"} 3\n")
	})
	cl, err := New([]string{newAgent(t, mux)})
	require.NoError(t, err)

	families, err := cl.Metrics(context.Background())
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Contains(t, families[0], "dbbench_runs_ok")
	assert.Equal(t, 3.0, families[0]["dbbench_runs_ok"].Metric[0].Counter.GetValue())
}

func TestWaitReadyRetries(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(benchapi.StatusIdle)
	})
	cl, err := New([]string{newAgent(t, mux)})
	require.NoError(t, err)

	require.NoError(t, cl.WaitReady(context.Background(), 5))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
