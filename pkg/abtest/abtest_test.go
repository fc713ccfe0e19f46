package abtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbbenchtools/pkg/dbbench"
)

func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbbench")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// steadyStub reports five identical 1ms executions regardless of workload.
const steadyStub = `
prev=""
for arg in "$@"; do
  if [ "$prev" = "--query-stats-file" ]; then out="$arg"; fi
  prev="$arg"
done
for i in 1 2 3 4 5; do printf 'q,0,1000,1\n' >> "$out"; done
`

func testSuite(opts Options) Suite {
	return Suite{
		A:       Side{Name: "old", Spec: dbbench.ConnSpec{}.WithDefaults()},
		B:       Side{Name: "new", Spec: dbbench.ConnSpec{Port: 3307}.WithDefaults()},
		Queries: []string{"SELECT 1", "SELECT 2"},
		Options: opts,
	}
}

func TestHarnessRun(t *testing.T) {
	workDir := t.TempDir()
	h := &Harness{
		Runner:  &dbbench.Runner{Executable: writeStub(t, steadyStub), WorkDir: workDir},
		WorkDir: workDir,
	}

	var seen int
	results, err := h.Run(context.Background(), testSuite(Options{Iterations: 5}), func(QueryResult) { seen++ })
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, seen)

	for _, r := range results {
		assert.True(t, r.Passed, "query %s: %+v", r.Query, r.Checks)
		assert.Equal(t, "old", r.Baseline.Name)
		assert.Equal(t, "new", r.Candidate.Name)
		assert.Len(t, r.Baseline.Samples, 5)
		assert.Equal(t, []float64{1, 1, 1, 1, 1}, r.Candidate.Samples)
		assert.Equal(t, "1.00±0.00", r.Baseline.Mean)
	}
	assert.True(t, AllPassed(results))

	// Generated query/workload artifacts are cleaned up.
	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHarnessExecErrors(t *testing.T) {
	h := &Harness{
		Runner:  &dbbench.Runner{Executable: writeStub(t, "exit 2"), WorkDir: t.TempDir()},
		WorkDir: t.TempDir(),
	}

	// Non-fatal mode records the failure and keeps going.
	results, err := h.Run(context.Background(), testSuite(Options{}), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Passed)
		assert.NotEmpty(t, r.Err)
	}
	assert.False(t, AllPassed(results))

	// Fatal mode aborts immediately.
	_, err = h.Run(context.Background(), testSuite(Options{FatalExecErrors: true}), nil)
	var execErr *dbbench.ExecError
	require.ErrorAs(t, err, &execErr)
}

func TestHarnessNoStats(t *testing.T) {
	h := &Harness{
		Runner: &dbbench.Runner{Executable: writeStub(t, `
prev=""
for arg in "$@"; do
  if [ "$prev" = "--query-stats-file" ]; then out="$arg"; fi
  prev="$arg"
done
: > "$out"
`), WorkDir: t.TempDir()},
		WorkDir: t.TempDir(),
	}

	_, err := h.TestQuery(context.Background(), Side{Name: "a"}, Side{Name: "b"}, "SELECT 1", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no statistics")
}
