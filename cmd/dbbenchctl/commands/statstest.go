package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dbbenchtools/pkg/abtest"
	"dbbenchtools/pkg/stats"
)

func statstestCmd() *cobra.Command {
	opts := abtest.Options{}

	cmd := &cobra.Command{
		Use:   "statstest [file]",
		Short: "Compare two tagged sample groups from a CSV file",
		Long: strings.TrimSpace(`
Read "tag,score" lines from a file or stdin and compare the two tagged
groups. The tag seen first is the baseline; the comparison fails when the
other group is statistically slower.
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			baseline, candidate, err := readSampleGroups(file)
			if err != nil {
				return err
			}

			printSideRun(baseline)
			printSideRun(candidate)

			checks := abtest.Compare(opts, baseline, candidate)
			for _, c := range checks {
				mark := "ok"
				if !c.Passed {
					mark = "FAIL"
				}
				fmt.Printf("%-4s %s: %s\n", mark, c.Name, c.Detail)
			}

			if !abtest.Passed(checks) {
				return fmt.Errorf("%q is significantly worse than %q", candidate.Name, baseline.Name)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&opts.Confidence, "confidence", abtest.DefaultConfidence, "Confidence level for the mean comparison")
	fl.Float64Var(&opts.MaxIntervalFrac, "max-interval", abtest.DefaultMaxIntervalFrac, "Maximum confidence interval width as a fraction of the mean")
	fl.IntVar(&opts.HistogramBuckets, "buckets", abtest.DefaultHistogramBuckets, "Number of histogram buckets")
	return cmd
}

// readSampleGroups parses "tag,score" rows into exactly two groups. The
// first tag encountered names the baseline group.
func readSampleGroups(file string) (baseline, candidate abtest.SideRun, err error) {
	var in io.Reader = os.Stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return baseline, candidate, err
		}
		defer f.Close()
		in = f
	}

	r := csv.NewReader(in)
	r.FieldsPerRecord = 2
	r.TrimLeadingSpace = true

	groups := map[string][]float64{}
	var order []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return baseline, candidate, fmt.Errorf("read samples: %w", err)
		}

		tag := row[0]
		score, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return baseline, candidate, fmt.Errorf("parse score %q for tag %q: %w", row[1], tag, err)
		}

		if _, ok := groups[tag]; !ok {
			order = append(order, tag)
		}
		groups[tag] = append(groups[tag], score)
	}

	if len(order) != 2 {
		return baseline, candidate, fmt.Errorf("expected exactly 2 sample groups, got %d", len(order))
	}
	a, b := groups[order[0]], groups[order[1]]
	if len(a) != len(b) {
		logrus.Warnf("sample groups have different sizes (%d vs %d)", len(a), len(b))
	}

	lo, hi := sharedRange(a, b)
	return newGroupRun(order[0], a, lo, hi), newGroupRun(order[1], b, lo, hi), nil
}

func newGroupRun(name string, samples []float64, lo, hi float64) abtest.SideRun {
	return abtest.SideRun{
		Name:      name,
		Samples:   samples,
		Mean:      stats.MeanString(samples, abtest.DefaultConfidence),
		Histogram: stats.NewHistogram(samples, lo, hi, abtest.DefaultHistogramBuckets),
	}
}

func sharedRange(a, b []float64) (lo, hi float64) {
	all := append(append([]float64{}, a...), b...)
	if len(all) == 0 {
		return 0, 0
	}
	lo, hi = all[0], all[0]
	for _, v := range all {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
