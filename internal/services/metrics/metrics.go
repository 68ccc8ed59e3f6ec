// Package metrics derives secondary series and summaries from aggregated
// groups: moving averages, display ranges, rankings and peaks.
package metrics

import (
	"math"
	"slices"
	"sort"

	"salesdash/internal/services/aggregate"
)

// DefaultWindow is the moving-average window used by the trend views
const DefaultWindow = 3

// MovingAverage returns the trailing mean of window values ending at each
// position. Positions with fewer than window values of history keep their
// raw value, so a short series comes back unchanged. Only the current and
// earlier positions contribute to each output.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = v
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// Quantile returns the q-th quantile of an ascending slice using linear
// interpolation between closest ranks. It returns NaN for an empty slice.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	h := q * float64(n-1)
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= n {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// DisplayRange is a suggested axis bound derived from the interquartile range
type DisplayRange struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// RobustRange computes [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. The input is not
// modified and no points are dropped. ok is false for an empty series.
func RobustRange(values []float64) (DisplayRange, bool) {
	if len(values) == 0 {
		return DisplayRange{}, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	return DisplayRange{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: q1 - 1.5*iqr,
		Upper: q3 + 1.5*iqr,
	}, true
}

// TopN returns the n groups with the largest values. Equal values keep
// their input order. n <= 0 returns an empty slice.
func TopN(groups []aggregate.Group, n int) []aggregate.Group {
	if n <= 0 {
		return []aggregate.Group{}
	}
	ranked := slices.Clone(groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return slices.Clip(ranked)
}

// PeakPoint marks the group holding the largest value
type PeakPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Index int     `json:"index"`
}

// Peak finds the first group with the maximum value, in the order given.
// ok is false when there are no groups.
func Peak(groups []aggregate.Group) (PeakPoint, bool) {
	if len(groups) == 0 {
		return PeakPoint{}, false
	}
	best := 0
	for i := 1; i < len(groups); i++ {
		if groups[i].Value > groups[best].Value {
			best = i
		}
	}
	return PeakPoint{Label: groups[best].Label(), Value: groups[best].Value, Index: best}, true
}

// PercentChange calculates the percentage change between two values
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return ((current - previous) / math.Abs(previous)) * 100
}

// PeriodChanges returns the change of each value against the one before it.
// The first period has no predecessor and reports 0.
func PeriodChanges(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		out[i] = PercentChange(values[i], values[i-1])
	}
	return out
}
