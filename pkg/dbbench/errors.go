package dbbench

import (
	"bytes"
	"fmt"
	"strings"
)

// ConfigError reports invalid connection parameters.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ExecError reports a dbbench process that exited non-zero. Output holds
// the combined stdout/stderr captured for diagnostics. Runs are never
// retried: a failed run can have already mutated database state.
type ExecError struct {
	ExitCode int
	Output   []byte
}

func (e *ExecError) Error() string {
	out := bytes.TrimSpace(e.Output)
	if len(out) == 0 {
		return fmt.Sprintf("dbbench exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("dbbench exited with code %d: %s", e.ExitCode, out)
}

// ParseError reports a stats file row that violates the
// name,startMicros,elapsedMicros,rowsAffected contract. A single bad row
// fails the whole run; partial results are never returned.
type ParseError struct {
	Line int
	Row  []string
	Err  error
}

func (e *ParseError) Error() string {
	if len(e.Row) > 0 {
		return fmt.Sprintf("stats row %d (%s): %v", e.Line, strings.Join(e.Row, ","), e.Err)
	}
	return fmt.Sprintf("stats row %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
