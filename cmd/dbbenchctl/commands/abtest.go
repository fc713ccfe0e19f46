package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"dbbenchtools/pkg/abtest"
	"dbbenchtools/pkg/dbbench"
	"dbbenchtools/pkg/sqltext"
)

type sideFlags struct {
	host     string
	port     string
	user     string
	password string
	database string
	setup    []string
}

func (f *sideFlags) register(cmd *cobra.Command, prefix string) {
	fl := cmd.Flags()
	fl.StringVar(&f.host, prefix+"-host", "", "Side "+prefix+" host")
	fl.StringVar(&f.port, prefix+"-port", "", "Side "+prefix+" port")
	fl.StringVar(&f.user, prefix+"-user", "", "Side "+prefix+" user")
	fl.StringVar(&f.password, prefix+"-password", "", "Side "+prefix+" password")
	fl.StringVar(&f.database, prefix+"-database", "", "Side "+prefix+" database")
	fl.StringArrayVar(&f.setup, prefix+"-setup", nil, "Setup statement run before each side "+prefix+" benchmark")
}

func (f *sideFlags) side(name string, base dbbench.ConnSpec) (abtest.Side, error) {
	spec := base
	if f.host != "" {
		spec.Host = f.host
	}
	if f.user != "" {
		spec.User = f.user
	}
	if f.password != "" {
		spec.Password = f.password
	}
	if f.database != "" {
		spec.Database = f.database
	}
	if f.port != "" {
		p, err := dbbench.NewConnSpec(spec.Host, f.port, spec.User, spec.Password, spec.Database, spec.Driver)
		if err != nil {
			return abtest.Side{}, err
		}
		spec.Port = p.Port
	}
	return abtest.Side{Name: name, Spec: spec, Setup: f.setup}, nil
}

func abtestCmd() *cobra.Command {
	var suiteFile string
	var queryFile string
	var queries []string
	var a, b sideFlags
	opts := abtest.Options{}

	cmd := &cobra.Command{
		Use:   "abtest",
		Short: "Compare query performance between two database setups",
		Long: strings.TrimSpace(`
Compare query performance between two database setups (A and B). Side A is
the baseline; the comparison fails when side B is statistically slower.
Queries come from --query flags, a --query-file, or a suite file.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := loadSuite(suiteFile, queryFile, queries, a, b, opts)
			if err != nil {
				return err
			}
			runner, err := newRunner()
			if err != nil {
				return err
			}

			h := abtest.Harness{Runner: runner, WorkDir: flagWorkDir}

			bar := pb.Full.Start(len(suite.Queries))
			results, err := h.Run(cmd.Context(), suite, func(abtest.QueryResult) {
				bar.Increment()
			})
			bar.Finish()
			if err != nil {
				return err
			}

			printABResults(results)
			if !abtest.AllPassed(results) {
				return fmt.Errorf("comparison failed for %d of %d queries", countFailed(results), len(results))
			}
			fmt.Println("All queries passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&suiteFile, "suite", "", "YAML suite file describing both sides and the queries")
	cmd.Flags().StringVar(&queryFile, "query-file", "", "File with semicolon-separated queries to compare")
	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "Query to compare (repeatable)")
	a.register(cmd, "a")
	b.register(cmd, "b")

	fl := cmd.Flags()
	fl.IntVar(&opts.Iterations, "iterations", abtest.DefaultIterations, "Measured executions per query and side")
	fl.IntVar(&opts.WarmupIterations, "warmup", abtest.DefaultWarmupIterations, "Warmup executions per query and side")
	fl.Float64Var(&opts.Confidence, "confidence", abtest.DefaultConfidence, "Confidence level for the mean comparison")
	fl.Float64Var(&opts.MaxIntervalFrac, "max-interval", abtest.DefaultMaxIntervalFrac, "Maximum confidence interval width as a fraction of the mean")
	fl.BoolVar(&opts.FatalExecErrors, "fatal-dbbench-errors", false, "Abort on the first dbbench execution error instead of recording it")
	return cmd
}

func loadSuite(suiteFile, queryFile string, queries []string, a, b sideFlags, opts abtest.Options) (abtest.Suite, error) {
	if suiteFile != "" {
		suite, err := readConfigFile[abtest.Suite](suiteFile, "")
		if err != nil {
			return abtest.Suite{}, err
		}
		suite.A.Spec = suite.A.Spec.WithDefaults()
		suite.B.Spec = suite.B.Spec.WithDefaults()
		suite.Options = suite.Options.WithDefaults()
		if suite.A.Name == "" {
			suite.A.Name = "a"
		}
		if suite.B.Name == "" {
			suite.B.Name = "b"
		}
		return suite, nil
	}

	if queryFile != "" {
		raw, err := os.ReadFile(queryFile)
		if err != nil {
			return abtest.Suite{}, err
		}
		queries = append(queries, sqltext.SplitStatements(string(raw))...)
	}
	for i, q := range queries {
		queries[i] = sqltext.Normalize(q)
	}
	if len(queries) == 0 {
		return abtest.Suite{}, fmt.Errorf("no queries given, use --query, --query-file or --suite")
	}

	base, err := connSpec()
	if err != nil {
		return abtest.Suite{}, err
	}
	sideA, err := a.side("a", base)
	if err != nil {
		return abtest.Suite{}, err
	}
	sideB, err := b.side("b", base)
	if err != nil {
		return abtest.Suite{}, err
	}

	return abtest.Suite{
		A:       sideA,
		B:       sideB,
		Queries: queries,
		Options: opts.WithDefaults(),
	}, nil
}

func countFailed(results []abtest.QueryResult) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}

func printABResults(results []abtest.QueryResult) {
	for _, r := range results {
		fmt.Printf("\n=== %s\n", r.Query)
		if r.Err != "" {
			fmt.Printf("error: %s\n", r.Err)
			continue
		}

		printSideRun(r.Baseline)
		printSideRun(r.Candidate)

		for _, c := range r.Checks {
			mark := "ok"
			if !c.Passed {
				mark = "FAIL"
			}
			fmt.Printf("%-4s %s: %s\n", mark, c.Name, c.Detail)
		}
	}
}

func printSideRun(run abtest.SideRun) {
	fmt.Printf("%s: mean %sms, %d samples\n", run.Name, run.Mean, len(run.Samples))
	fmt.Println(run.Histogram.Render("ms"))
}
