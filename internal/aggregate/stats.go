// ABOUTME: Small descriptive statistics helpers shared by the aggregations.
// ABOUTME: Callers guarantee non-empty input.
package aggregate

import "math"

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStdDev divides by N, matching SQL STDDEV/STDDEV_POP.
func populationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// round2 rounds to two decimals for display summaries.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
