// Command runsummary aggregates saved dbbench run results. Each input file
// holds the JSON query stats printed by `dbbenchctl run --json`.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"dbbenchtools/pkg/dbbench"
	"dbbenchtools/pkg/stats"
	"dbbenchtools/pkg/units"
)

type fileSummary struct {
	Name      string
	Queries   int
	TotalRows uint64
	ElapsedMS stats.Summary
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("At least one filename is required as a positional argument.")
	}

	var summaries []fileSummary
	for _, filename := range flag.Args() {
		summary, err := summarizeFile(filename)
		if err != nil {
			log.Fatalf("Failed to summarize %s: %v", filename, err)
		}
		summaries = append(summaries, summary)
	}

	fmt.Printf("%-30s %-10s %-10s %-12s %-12s %-12s\n", "file", "queries", "rows", "mean_ms", "median_ms", "max_ms")
	for _, s := range summaries {
		fmt.Printf("%-30s %-10d %-10s %-12.3f %-12.3f %-12.3f\n",
			s.Name, s.Queries, units.Count(float64(s.TotalRows)),
			s.ElapsedMS.Mean, s.ElapsedMS.Median, s.ElapsedMS.Max)
	}

	if len(summaries) > 1 {
		means := make([]float64, len(summaries))
		medians := make([]float64, len(summaries))
		for i, s := range summaries {
			means[i] = s.ElapsedMS.Mean
			medians[i] = s.ElapsedMS.Median
		}
		fmt.Printf("\n%d runs, mean of means %.3fms, median of medians %.3fms\n",
			len(summaries), stats.Mean(means), stats.Median(medians))
	}
}

func summarizeFile(filename string) (fileSummary, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fileSummary{}, fmt.Errorf("read file: %w", err)
	}

	var queries []dbbench.QueryStat
	if err := json.Unmarshal(data, &queries); err != nil {
		return fileSummary{}, fmt.Errorf("unmarshal JSON: %w", err)
	}

	var rows uint64
	for _, q := range queries {
		rows += q.RowsAffected
	}

	elapsed := stats.Map(queries, dbbench.QueryStat.ElapsedMillis)
	return fileSummary{
		Name:      filename,
		Queries:   len(queries),
		TotalRows: rows,
		ElapsedMS: stats.Summarize(elapsed, 0),
	}, nil
}
