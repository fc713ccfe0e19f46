package dbbench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseStats reads the stats stream written by dbbench: CSV rows of
// name,startMicros,elapsedMicros,rowsAffected with no header. Row order is
// preserved. Any malformed row fails the parse with a *ParseError.
func ParseStats(r io.Reader) ([]QueryStat, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []QueryStat
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		if len(row) != 4 {
			return nil, &ParseError{Line: line, Row: row, Err: fmt.Errorf("expected 4 fields, got %d", len(row))}
		}

		stat := QueryStat{Name: row[0]}
		for i, dst := range []*uint64{&stat.StartMicros, &stat.ElapsedMicros, &stat.RowsAffected} {
			v, err := strconv.ParseUint(strings.TrimSpace(row[i+1]), 10, 64)
			if err != nil {
				return nil, &ParseError{Line: line, Row: row, Err: err}
			}
			*dst = v
		}
		out = append(out, stat)
	}
}
