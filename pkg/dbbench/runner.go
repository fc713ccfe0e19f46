// Package dbbench invokes the external dbbench workload engine and parses
// the per-query statistics it reports back.
//
// The engine owns query execution, scheduling and connection handling.
// This package only formats the invocation, manages the transient stats
// file and turns its rows into QueryStat records.
package dbbench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// DefaultExecutable is the binary name resolved through PATH when no
// explicit executable is configured.
const DefaultExecutable = "dbbench"

// Runner runs dbbench workload configs. The zero value is usable and
// resolves "dbbench" through PATH.
//
// A Runner holds no per-run state, so concurrent Run calls are safe: each
// run gets its own process and its own stats file.
type Runner struct {
	// Executable is the dbbench binary to invoke. Resolve it up front with
	// ResolveExecutable when the deployment ships its own copy.
	Executable string

	// WorkDir receives the transient stats files. Empty means the system
	// temp directory.
	WorkDir string

	// KeepArtifacts preserves stats files for post-mortem inspection
	// instead of removing them when the run finishes. Debug logging
	// implies the same behavior.
	KeepArtifacts bool

	// Timeout bounds a single run. Zero means wait indefinitely.
	Timeout time.Duration
}

type runConfig struct {
	baseDir string
}

// RunOption adjusts a single Run call.
type RunOption func(*runConfig)

// WithBaseDir overrides the base directory handed to dbbench for resolving
// relative paths inside the workload config. It defaults to the config
// file's own directory.
func WithBaseDir(dir string) RunOption {
	return func(c *runConfig) { c.baseDir = dir }
}

// Run executes one workload config against the database described by spec
// and returns the per-query statistics in the order dbbench logged them.
//
// The call blocks until the dbbench process exits. A non-zero exit yields
// an *ExecError with the captured combined output; a malformed stats file
// yields a *ParseError. In both cases no records are returned and the
// stats file is cleaned up (unless retention is active).
func (r *Runner) Run(ctx context.Context, spec ConnSpec, configPath string, opts ...RunOption) ([]QueryStat, error) {
	cfg := runConfig{baseDir: filepath.Dir(configPath)}
	for _, opt := range opts {
		opt(&cfg)
	}

	statsPath, err := r.createStatsFile()
	if err != nil {
		return nil, err
	}
	if r.retainArtifacts() {
		logrus.WithField("stats_file", statsPath).Debug("retaining stats file")
	} else {
		defer os.Remove(statsPath)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	exe := r.Executable
	if exe == "" {
		exe = DefaultExecutable
	}
	args := []string{
		"--database", spec.Database,
		"--host", spec.Host,
		"--port", strconv.Itoa(spec.Port),
		"--username", spec.User,
		"--password", spec.Password,
		"--intermediate-stats=false",
		"--query-stats-file", statsPath,
		"--base-dir", cfg.baseDir,
		configPath,
	}
	logrus.Debugf("run command: %s %s", exe, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, exe, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("dbbench %s: %w", configPath, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExecError{ExitCode: exitErr.ExitCode(), Output: output}
		}
		return nil, fmt.Errorf("start dbbench: %w", err)
	}

	f, err := os.Open(statsPath)
	if err != nil {
		return nil, fmt.Errorf("open stats file: %w", err)
	}
	defer f.Close()

	stats, err := ParseStats(f)
	if err != nil {
		return nil, fmt.Errorf("stats file %s: %w", statsPath, err)
	}
	return stats, nil
}

func (r *Runner) createStatsFile() (string, error) {
	f, err := os.CreateTemp(r.WorkDir, "dbbench-stats-"+xid.New().String()+"-*.csv")
	if err != nil {
		return "", fmt.Errorf("create stats file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("create stats file: %w", err)
	}
	return path, nil
}

func (r *Runner) retainArtifacts() bool {
	return r.KeepArtifacts || logrus.IsLevelEnabled(logrus.DebugLevel)
}
