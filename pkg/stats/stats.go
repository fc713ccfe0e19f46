// Package stats provides the summary statistics and significance checks
// used to compare benchmark timing samples.
package stats

import (
	"math"
	"slices"
)

// Histogram is a fixed-width bucketing of samples over [Lo, Hi). Values
// outside the range are clamped into the edge buckets so outliers stay
// visible.
type Histogram struct {
	Lo     float64 `json:"lo"`
	Hi     float64 `json:"hi"`
	Counts []int   `json:"counts"`
}

func (h Histogram) BucketWidth() float64 {
	if len(h.Counts) == 0 {
		return 0
	}
	return (h.Hi - h.Lo) / float64(len(h.Counts))
}

// Summary describes the distribution of one sample set.
type Summary struct {
	Count     int       `json:"count"`
	Sum       float64   `json:"sum"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Mean      float64   `json:"mean"`
	Median    float64   `json:"median"`
	Stddev    float64   `json:"stddev"`
	Histogram Histogram `json:"histogram"`
}

// Summarize computes a Summary with the given number of histogram buckets.
func Summarize(values []float64, buckets int) (s Summary) {
	if len(values) == 0 {
		return s
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s.Count = len(sorted)
	s.Sum = Sum(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = s.Sum / float64(s.Count)
	s.Median = medianSorted(sorted)
	s.Stddev = Stddev(sorted)
	s.Histogram = NewHistogram(sorted, s.Min, s.Max, buckets)
	return s
}

// Sum adds values with Kahan compensation to limit floating-point error.
func Sum(values []float64) float64 {
	sum := 0.0
	correction := 0.0
	for _, v := range values {
		y := v - correction
		t := sum + y
		correction = (t - sum) - y
		sum = t
	}
	return sum
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Stddev is the sample standard deviation (n-1 denominator). It is 0 for
// fewer than two values.
func Stddev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := Mean(values)
	devs := make([]float64, len(values))
	for i, v := range values {
		d := v - mean
		devs[i] = d * d
	}
	return math.Sqrt(Sum(devs) / float64(len(values)-1))
}

func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return medianSorted(sorted)
}

func medianSorted(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// NewHistogram buckets values into n fixed-width buckets over [lo, hi).
// Sharing lo/hi between two sample sets keeps their rendered histograms
// aligned bucket for bucket.
func NewHistogram(values []float64, lo, hi float64, n int) Histogram {
	if n <= 0 {
		n = 10
	}
	h := Histogram{Lo: lo, Hi: hi, Counts: make([]int, n)}
	if hi <= lo {
		// Degenerate range: everything lands in the first bucket.
		h.Counts[0] = len(values)
		return h
	}

	width := (hi - lo) / float64(n)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		h.Counts[idx]++
	}
	return h
}

// Map extracts a float64 sample from each item.
func Map[T any](items []T, fn func(T) float64) []float64 {
	values := make([]float64, len(items))
	for i := range items {
		values[i] = fn(items[i])
	}
	return values
}

// ExpBuckets returns exponentially growing bucket boundaries, suitable for
// latency metric histograms.
func ExpBuckets(start, factor, max float64) []float64 {
	var buckets []float64
	for current := start; current <= max; current *= factor {
		buckets = append(buckets, current)
	}
	return buckets
}
