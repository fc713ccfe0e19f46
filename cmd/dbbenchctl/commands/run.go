package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dbbenchtools/pkg/dbbench"
	"dbbenchtools/pkg/stats"
	"dbbenchtools/pkg/units"
)

func runCmd() *cobra.Command {
	var baseDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <config.ini>",
		Short: "Run a dbbench configuration against the target database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := connSpec()
			if err != nil {
				return err
			}
			runner, err := newRunner()
			if err != nil {
				return err
			}

			var opts []dbbench.RunOption
			if baseDir != "" {
				opts = append(opts, dbbench.WithBaseDir(baseDir))
			}

			queries, err := runner.Run(cmd.Context(), spec, args[0], opts...)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(queries)
			}
			return printQueryStats(queries)
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Base directory passed to dbbench (defaults to the config directory)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw results as JSON")
	return cmd
}

func printQueryStats(queries []dbbench.QueryStat) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTART\tELAPSED\tROWS")
	for _, q := range queries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			q.Name,
			units.Micros(q.StartMicros),
			units.Micros(q.ElapsedMicros),
			units.Count(float64(q.RowsAffected)),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	elapsed := stats.Map(queries, dbbench.QueryStat.ElapsedMillis)
	if len(elapsed) > 0 {
		s := stats.Summarize(elapsed, 0)
		fmt.Printf("\n%d queries, mean %.3fms, median %.3fms, max %.3fms\n",
			s.Count, s.Mean, s.Median, s.Max)
	}
	return nil
}
