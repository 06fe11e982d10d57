// ABOUTME: Nearest-rank quartile calculator for per-participant box plots.
// ABOUTME: Pure function over a materialized sample; no interpolation.
package aggregate

import (
	"math"
	"sort"
)

// ParticipantValue is one pre-aggregated metric value for a participant.
type ParticipantValue struct {
	PID   string  `json:"pid" yaml:"pid"`
	Value float64 `json:"value" yaml:"value"`
}

// BoxPlot holds the five-number summary plus the points it was built from.
type BoxPlot struct {
	Min    float64            `json:"min" yaml:"min"`
	Q1     float64            `json:"q1" yaml:"q1"`
	Median float64            `json:"median" yaml:"median"`
	Q3     float64            `json:"q3" yaml:"q3"`
	Max    float64            `json:"max" yaml:"max"`
	Points []ParticipantValue `json:"individuals" yaml:"individuals"`
}

// BoxPlotOf computes {min, Q1, median, Q3, max} using nearest rank: the
// element at 1-based rank floor(N*p). Ranks below 1 are clamped to 1.
func BoxPlotOf(values []ParticipantValue) (BoxPlot, error) {
	return boxPlotFor("", values)
}

func boxPlotFor(metric string, values []ParticipantValue) (BoxPlot, error) {
	n := len(values)
	if n == 0 {
		return BoxPlot{}, &EmptyInputError{Metric: metric}
	}

	sorted := make([]float64, n)
	for i, v := range values {
		sorted[i] = v.Value
	}
	sort.Float64s(sorted)

	points := make([]ParticipantValue, n)
	copy(points, values)

	return BoxPlot{
		Min:    sorted[0],
		Q1:     sorted[nearestRank(n, 0.25)-1],
		Median: sorted[nearestRank(n, 0.5)-1],
		Q3:     sorted[nearestRank(n, 0.75)-1],
		Max:    sorted[n-1],
		Points: points,
	}, nil
}

// nearestRank returns the 1-based rank floor(n*p), clamped to [1, n].
func nearestRank(n int, p float64) int {
	r := int(math.Floor(float64(n) * p))
	if r < 1 {
		return 1
	}
	if r > n {
		return n
	}
	return r
}
