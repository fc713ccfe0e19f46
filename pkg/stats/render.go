package stats

import (
	"fmt"
	"strings"
)

var blocks = []rune(" ▁▂▃▄▅▆▇█")

// bucketRune scales a bucket count against the fullest bucket. Non-empty
// buckets always render at least the smallest block so outliers remain
// visible.
func bucketRune(count, max int) rune {
	if max <= 0 {
		return blocks[0]
	}
	i := count * (len(blocks) - 1) / max
	if count > 0 && i == 0 {
		i = 1
	}
	return blocks[i]
}

// Render draws the histogram as a single-line bar chart bracketed by its
// range, e.g. "  10.00ms : ▁▃█▅▁ :   25.00ms". Histograms built with the
// same limits and bucket count line up when printed together.
func (h Histogram) Render(unit string) string {
	max := 0
	for _, c := range h.Counts {
		if c > max {
			max = c
		}
	}

	var bars strings.Builder
	for _, c := range h.Counts {
		bars.WriteRune(bucketRune(c, max))
	}
	return fmt.Sprintf("%7.2f%s : %s : %7.2f%s", h.Lo, unit, bars.String(), h.Hi, unit)
}
