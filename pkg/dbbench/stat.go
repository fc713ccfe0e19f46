package dbbench

import (
	"fmt"

	"dbbenchtools/pkg/units"
)

// QueryStat is one query's telemetry as reported by the dbbench stats
// file: identity, start offset and elapsed time in exact microseconds, and
// the number of rows the query touched. Records are read-only once parsed.
type QueryStat struct {
	Name          string `json:"name"`
	StartMicros   uint64 `json:"start_us"`
	ElapsedMicros uint64 `json:"elapsed_us"`
	RowsAffected  uint64 `json:"rows_affected"`
}

// ElapsedMillis converts the elapsed time to float milliseconds, the unit
// used by the statistics checks.
func (q QueryStat) ElapsedMillis() float64 {
	return float64(q.ElapsedMicros) / 1000.0
}

func (q QueryStat) String() string {
	return fmt.Sprintf("QueryStat(name=%s, start=%s, elapsed=%s, rowsAffected=%s)",
		q.Name,
		units.Micros(q.StartMicros),
		units.Micros(q.ElapsedMicros),
		units.Count(float64(q.RowsAffected)))
}
