package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbbenchtools/api/benchapi"
	"dbbenchtools/internal/runner"
	"dbbenchtools/pkg/dbbench"
)

const statsStub = `
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--query-stats-file" ]; then out="$2"; shift; fi
  shift
done
printf 'q1,0,500,10\n' > "$out"
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	stub := filepath.Join(dir, "dbbench")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\n"+statsStub), 0o755))

	r := runner.New(runner.Config{
		Conn:  dbbench.ConnSpec{}.WithDefaults(),
		Bench: dbbench.Runner{Executable: stub, WorkDir: t.TempDir()},
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)

	router := chi.NewRouter()
	h := NewHandler(r, prometheus.NewRegistry())
	h.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := srv.Client().Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStatusIdle(t *testing.T) {
	srv := newTestServer(t)

	var status benchapi.APIWorkerStatus
	code := getJSON(t, srv, "/status", &status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, benchapi.StatusIdle, status.Code)
	assert.Nil(t, status.Last)
}

func TestRouteList(t *testing.T) {
	srv := newTestServer(t)

	var routes struct {
		Routes []struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		} `json:"routes"`
	}
	code := getJSON(t, srv, "/", &routes)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, routes.Routes)
}

func TestWorkRun(t *testing.T) {
	srv := newTestServer(t)

	configPath := filepath.Join(t.TempDir(), "bench.ini")
	require.NoError(t, os.WriteFile(configPath, []byte("[job \"q\"]\n"), 0o644))

	resp := postJSON(t, srv, "/work/run", benchapi.RunRequest{ConfigPath: configPath})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status benchapi.RunWorkerStatus
	require.Eventually(t, func() bool {
		status = benchapi.RunWorkerStatus{}
		code := getJSON(t, srv, "/status", &status)
		return code == http.StatusOK && status.Code == benchapi.StatusIdle && status.Last != nil
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, benchapi.TaskRun, status.Task)
	require.NoError(t, status.Last.Error)
	require.Len(t, status.Last.Value.Queries, 1)
	assert.Equal(t, "q1", status.Last.Value.Queries[0].Name)
	assert.Equal(t, uint64(500), status.Last.Value.Queries[0].ElapsedMicros)
}

func TestWorkRunRejectsMissingConfig(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/work/run", benchapi.RunRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkRunRejectsContentType(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/work/run", "text/plain", bytes.NewReader([]byte("nope")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkStopWhenIdle(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/work/stop", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
