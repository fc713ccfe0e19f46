package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 2, 3}, 4)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 10, s.Sum, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, 1.2909944487, s.Stddev, 1e-9)
	assert.Equal(t, []int{1, 1, 1, 1}, s.Histogram.Counts)

	assert.Equal(t, Summary{}, Summarize(nil, 4))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 1.5, Median([]float64{2, 1}))
	assert.Equal(t, 0.0, Median(nil))
}

func TestNewHistogram(t *testing.T) {
	h := NewHistogram([]float64{0, 1, 2, 3, 9, 100, -5}, 0, 10, 5)
	// -5 clamps into the first bucket, 100 into the last.
	assert.Equal(t, []int{3, 2, 0, 0, 2}, h.Counts)
	assert.Equal(t, 2.0, h.BucketWidth())

	degenerate := NewHistogram([]float64{5, 5, 5}, 5, 5, 3)
	assert.Equal(t, []int{3, 0, 0}, degenerate.Counts)
}

func TestConfidenceIntervalWidth(t *testing.T) {
	// t quantile at 0.975 with 4 degrees of freedom is 2.7764.
	values := []float64{1, 2, 3, 4, 5}
	sem := Stddev(values) / math.Sqrt(5)
	assert.InDelta(t, sem*2.7764, ConfidenceIntervalWidth(values, 0.975), 1e-3)

	assert.Equal(t, 0.0, ConfidenceIntervalWidth([]float64{1}, 0.975))
}

func TestStudentTCDF(t *testing.T) {
	assert.InDelta(t, 0.5, StudentTCDF(0, 10), 1e-12)
	// Known values: F(2.228; 10) = 0.975, F(1.812; 10) = 0.95.
	assert.InDelta(t, 0.975, StudentTCDF(2.228, 10), 1e-4)
	assert.InDelta(t, 0.95, StudentTCDF(1.812, 10), 1e-4)
	assert.InDelta(t, 0.025, StudentTCDF(-2.228, 10), 1e-4)
}

func TestStudentTQuantile(t *testing.T) {
	assert.InDelta(t, 2.228, StudentTQuantile(0.975, 10), 1e-3)
	assert.InDelta(t, 2.7764, StudentTQuantile(0.975, 4), 1e-3)
	assert.InDelta(t, 0, StudentTQuantile(0.5, 7), 1e-9)
}

func TestWelchTTest(t *testing.T) {
	same := []float64{10, 11, 9, 10.5, 9.5, 10, 10.2, 9.8}
	_, p := WelchTTest(same, same)
	assert.InDelta(t, 1.0, p, 1e-9)

	slow := []float64{20, 21, 19, 20.5, 19.5, 20, 20.2, 19.8}
	tstat, p := WelchTTest(same, slow)
	assert.Negative(t, tstat)
	assert.Less(t, p, 0.001)

	// Zero variance, equal means.
	_, p = WelchTTest([]float64{5, 5, 5}, []float64{5, 5, 5})
	assert.Equal(t, 1.0, p)
}

func TestMeanString(t *testing.T) {
	require.Equal(t, "3.00±0.00", MeanString([]float64{3, 3, 3, 3}, 0.999))
}

func TestRender(t *testing.T) {
	h := Histogram{Lo: 0, Hi: 10, Counts: []int{0, 1, 8, 2, 0}}
	got := h.Render("ms")
	assert.Contains(t, got, "█")
	assert.Contains(t, got, "0.00ms")
	assert.Contains(t, got, "10.00ms")
	// All-empty histograms render blank bars, not a division by zero.
	assert.Contains(t, Histogram{Lo: 0, Hi: 1, Counts: make([]int, 3)}.Render(""), "   ")
}

func TestExpBuckets(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 4, 8}, ExpBuckets(1, 2, 8))
}
