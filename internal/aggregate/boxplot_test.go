// ABOUTME: Tests for the nearest-rank box plot calculator.
// ABOUTME: Covers small-N clamping, extremes, ordering, and empty input.
package aggregate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func values(vs ...float64) []ParticipantValue {
	out := make([]ParticipantValue, len(vs))
	for i, v := range vs {
		out[i] = ParticipantValue{PID: string(rune('a' + i)), Value: v}
	}
	return out
}

func TestBoxPlotOf(t *testing.T) {
	tests := []struct {
		name                     string
		in                       []ParticipantValue
		min, q1, median, q3, max float64
	}{
		{"single", values(5), 5, 5, 5, 5, 5},
		{"two", values(3, 1), 1, 1, 1, 1, 3},
		{"three", values(30, 10, 20), 10, 10, 10, 20, 30},
		{"one to eight", values(8, 3, 1, 6, 2, 7, 5, 4), 1, 2, 4, 6, 8},
		{"duplicates", values(2, 2, 2, 2), 2, 2, 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BoxPlotOf(tt.in)
			if err != nil {
				t.Fatalf("BoxPlotOf() error = %v", err)
			}
			want := [5]float64{tt.min, tt.q1, tt.median, tt.q3, tt.max}
			have := [5]float64{got.Min, got.Q1, got.Median, got.Q3, got.Max}
			if want != have {
				t.Errorf("BoxPlotOf() = %v, want %v", have, want)
			}
		})
	}
}

func TestBoxPlotOfMinMaxAreExtremes(t *testing.T) {
	in := values(4.5, -2, 19.25, 7, 0, 3.3, 11)
	got, err := BoxPlotOf(in)
	if err != nil {
		t.Fatalf("BoxPlotOf() error = %v", err)
	}
	if got.Min != -2 || got.Max != 19.25 {
		t.Errorf("min/max = %v/%v, want -2/19.25", got.Min, got.Max)
	}
	if !(got.Min <= got.Q1 && got.Q1 <= got.Median && got.Median <= got.Q3 && got.Q3 <= got.Max) {
		t.Errorf("five-number summary not ordered: %+v", got)
	}
}

func TestBoxPlotOfPreservesPointOrder(t *testing.T) {
	in := values(9, 1, 5)
	got, err := BoxPlotOf(in)
	if err != nil {
		t.Fatalf("BoxPlotOf() error = %v", err)
	}
	if diff := cmp.Diff(in, got.Points); diff != "" {
		t.Errorf("Points mismatch (-want +got):\n%s", diff)
	}
	// input must not be sorted in place
	if in[0].Value != 9 {
		t.Errorf("input mutated: %+v", in)
	}
}

func TestBoxPlotOfEmpty(t *testing.T) {
	_, err := BoxPlotOf(nil)
	var empty *EmptyInputError
	if !errors.As(err, &empty) {
		t.Fatalf("BoxPlotOf(nil) error = %v, want EmptyInputError", err)
	}
}

func TestNearestRankClamps(t *testing.T) {
	tests := []struct {
		n    int
		p    float64
		want int
	}{
		{1, 0.25, 1},
		{2, 0.25, 1},
		{3, 0.5, 1},
		{4, 0.25, 1},
		{8, 0.75, 6},
		{10, 1.0, 10},
	}
	for _, tt := range tests {
		if got := nearestRank(tt.n, tt.p); got != tt.want {
			t.Errorf("nearestRank(%d, %v) = %d, want %d", tt.n, tt.p, got, tt.want)
		}
	}
}
