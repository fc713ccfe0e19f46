// Package units renders raw microsecond and row counts as short
// human-readable strings.
package units

import "fmt"

// Scales are ordered largest first; the first scale the value meets or
// exceeds wins. Exactly 1000us therefore renders as "1.000ms".
var microScales = []struct {
	suffix string
	scale  float64
}{
	{"h", 60 * 60 * 1e6},
	{"m", 60 * 1e6},
	{"s", 1e6},
	{"ms", 1e3},
}

// Micros formats a microsecond count with the largest fitting time unit.
// Values below one millisecond keep their exact integer form ("999us");
// zero is "0us".
func Micros(v uint64) string {
	f := float64(v)
	for _, u := range microScales {
		if f >= u.scale {
			return fmt.Sprintf("%.3f%s", f/u.scale, u.suffix)
		}
	}
	if v >= 1 {
		return fmt.Sprintf("%dus", v)
	}
	return "0us"
}

var countScales = []struct {
	suffix string
	scale  float64
}{
	{"G", 1 << 30},
	{"M", 1 << 20},
	{"K", 1 << 10},
}

// Count formats a count with binary magnitude units (K=2^10, M=2^20,
// G=2^30). Values below 1 render as "0".
func Count(v float64) string {
	for _, u := range countScales {
		if v >= u.scale {
			return fmt.Sprintf("%.3f%s", v/u.scale, u.suffix)
		}
	}
	if v >= 1 {
		return fmt.Sprintf("%d", int64(v))
	}
	return "0"
}
