package dbbench

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStats(t *testing.T) {
	stats, err := ParseStats(strings.NewReader("q1,0,500,10\nq2,500,1200,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []QueryStat{
		{Name: "q1", StartMicros: 0, ElapsedMicros: 500, RowsAffected: 10},
		{Name: "q2", StartMicros: 500, ElapsedMicros: 1200, RowsAffected: 3},
	}, stats)
}

func TestParseStatsEmpty(t *testing.T) {
	stats, err := ParseStats(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestParseStatsFieldCount(t *testing.T) {
	var parseErr *ParseError

	_, err := ParseStats(strings.NewReader("q1,0,500,10\nq2,500,1200\n"))
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
	assert.Contains(t, parseErr.Error(), "q2,500,1200")
}

func TestParseStatsNonNumeric(t *testing.T) {
	var parseErr *ParseError

	_, err := ParseStats(strings.NewReader("q1,zero,500,10\n"))
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)

	// Negative counts are rejected, the fields are exact unsigned integers.
	_, err = ParseStats(strings.NewReader("q1,0,-500,10\n"))
	assert.ErrorAs(t, err, &parseErr)
}

func TestQueryStatString(t *testing.T) {
	s := QueryStat{Name: "q", StartMicros: 0, ElapsedMicros: 1500, RowsAffected: 1024}
	assert.Equal(t, "QueryStat(name=q, start=0us, elapsed=1.500ms, rowsAffected=1.000K)", s.String())
}
