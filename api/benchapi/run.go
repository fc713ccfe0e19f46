package benchapi

import (
	"dbbenchtools/pkg/abtest"
	"dbbenchtools/pkg/dbbench"
	"dbbenchtools/pkg/stats"
)

type RunWorkerStatus = WorkerStatus[Result[RunStats]]

type ABTestWorkerStatus = WorkerStatus[Result[ABTestStats]]

// RunRequest asks the agent to execute a single dbbench configuration
// that is readable on the agent host.
type RunRequest struct {
	// Path to the dbbench configuration file on the agent host.
	ConfigPath string `json:"config_path"`

	// Working directory passed to dbbench via --base-dir. Defaults to
	// the directory of ConfigPath.
	BaseDir string `json:"base_dir,omitempty"`

	// Connection overrides. Unset fields fall back to the agent's
	// configured target database.
	Conn *dbbench.ConnSpec `json:"conn,omitempty"`

	// Maximum run duration. Default: no limit.
	Timeout *Duration `json:"timeout,omitempty"`
}

// Result type of a single dbbench run.
type RunStats struct {
	Queries []dbbench.QueryStat `json:"queries"`

	// Per-query elapsed times in milliseconds.
	ElapsedMS stats.Summary `json:"elapsed_ms"`
}

// ABTestRequest asks the agent to execute an A/B comparison suite.
type ABTestRequest struct {
	Suite abtest.Suite `json:"suite"`

	// Maximum duration for each dbbench invocation. Default: no limit.
	Timeout *Duration `json:"timeout,omitempty"`
}

// Result type of an A/B comparison run.
type ABTestStats struct {
	Results []abtest.QueryResult `json:"results"`
	Passed  bool                 `json:"passed"`
}
