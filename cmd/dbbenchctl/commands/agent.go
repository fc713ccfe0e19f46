package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dbbenchtools/api/benchapi"
	"dbbenchtools/pkg/abtest"
	"dbbenchtools/pkg/client"
	"dbbenchtools/pkg/timeutil"
)

var flagAgents []string

func agentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Control remote benchagent instances",
	}
	cmd.PersistentFlags().StringSliceVar(&flagAgents, "agents", nil, "Agent addresses (host:port, repeatable)")

	cmd.AddCommand(agentRunCmd())
	cmd.AddCommand(agentABTestCmd())
	cmd.AddCommand(agentStatusCmd())
	cmd.AddCommand(agentResultsCmd())
	cmd.AddCommand(agentStopCmd())
	cmd.AddCommand(agentCheckCmd())
	return cmd
}

func newClient() (*client.Client, error) {
	return client.New(flagAgents)
}

func agentRunCmd() *cobra.Command {
	var baseDir string
	var wait bool

	cmd := &cobra.Command{
		Use:   "run <config.ini>",
		Short: "Run a dbbench configuration on every agent",
		Long:  "The configuration path is resolved on the agent host, not locally.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := newClient()
			if err != nil {
				return err
			}

			req := benchapi.RunRequest{
				ConfigPath: args[0],
				BaseDir:    baseDir,
			}
			conn, err := connSpec()
			if err != nil {
				return err
			}
			req.Conn = &conn
			if flagTimeout > 0 {
				req.Timeout = &benchapi.Duration{Duration: flagTimeout}
			}

			if err := cl.Run(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Println("Benchmark started")

			if wait {
				// Let the agents pick up the task so polling does not
				// mistake a previous result for this run.
				if err := timeutil.Sleep(cmd.Context(), time.Second); err != nil {
					return err
				}
				results, err := cl.RunResults(cmd.Context(), true)
				if err != nil {
					return err
				}
				return printAgentRunResults(results)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Base directory passed to dbbench on the agent")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the benchmark to finish and print results")
	return cmd
}

func agentABTestCmd() *cobra.Command {
	var suiteFile string
	var wait bool

	cmd := &cobra.Command{
		Use:   "abtest",
		Short: "Run an A/B comparison suite on every agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := newClient()
			if err != nil {
				return err
			}

			suite, err := readConfigFile[abtest.Suite](suiteFile, "")
			if err != nil {
				return err
			}
			req := benchapi.ABTestRequest{Suite: suite}
			if flagTimeout > 0 {
				req.Timeout = &benchapi.Duration{Duration: flagTimeout}
			}

			if err := cl.ABTest(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Println("Comparison started")

			if wait {
				if err := timeutil.Sleep(cmd.Context(), time.Second); err != nil {
					return err
				}
				results, err := cl.ABTestResults(cmd.Context(), true)
				if err != nil {
					return err
				}
				return printAgentABResults(results)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&suiteFile, "suite", "", "YAML suite file describing both sides and the queries")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the comparison to finish and print results")
	return cmd
}

func agentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the worker status of every agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := newClient()
			if err != nil {
				return err
			}
			status, err := cl.Status(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(status)
		},
	}
}

func agentResultsCmd() *cobra.Command {
	var wait bool
	var task string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Fetch the last benchmark results from every agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := newClient()
			if err != nil {
				return err
			}

			switch benchapi.TaskName(task) {
			case benchapi.TaskABTest:
				results, err := cl.ABTestResults(cmd.Context(), wait)
				if err != nil {
					return err
				}
				return printAgentABResults(results)
			default:
				results, err := cl.RunResults(cmd.Context(), wait)
				if err != nil {
					return err
				}
				return printAgentRunResults(results)
			}
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the active task to finish")
	cmd.Flags().StringVar(&task, "task", string(benchapi.TaskRun), "Task results to fetch")
	return cmd
}

func agentStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Cancel the active task on every agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := newClient()
			if err != nil {
				return err
			}
			return cl.Stop(cmd.Context())
		},
	}
}

func agentCheckCmd() *cobra.Command {
	var wait bool
	var maxTries uint

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that every agent is reachable and can reach its database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := newClient()
			if err != nil {
				return err
			}

			if wait {
				if err := cl.WaitReady(cmd.Context(), maxTries); err != nil {
					return err
				}
				fmt.Println("Agents are ready")
				return nil
			}

			idle, err := cl.Healthcheck(cmd.Context())
			if err != nil {
				return err
			}
			if idle {
				fmt.Println("Agents are healthy and idle")
			} else {
				fmt.Println("Agents are healthy, but busy")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Retry until the agents are ready")
	cmd.Flags().UintVar(&maxTries, "max-tries", 5, "Healthcheck attempts per agent before giving up")
	return cmd
}

func printAgentRunResults(results []benchapi.RunWorkerStatus) error {
	for _, status := range results {
		if status.Last == nil {
			continue
		}
		if status.Last.Error != nil {
			fmt.Printf("error: %v\n", status.Last.Error)
			continue
		}
		if err := printQueryStats(status.Last.Value.Queries); err != nil {
			return err
		}
	}
	return nil
}

func printAgentABResults(results []benchapi.ABTestWorkerStatus) error {
	failed := 0
	for _, status := range results {
		if status.Last == nil {
			continue
		}
		if status.Last.Error != nil {
			fmt.Printf("error: %v\n", status.Last.Error)
			failed++
			continue
		}
		printABResults(status.Last.Value.Results)
		if !status.Last.Value.Passed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("comparison failed on %d agents", failed)
	}
	return nil
}
