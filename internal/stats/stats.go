// Package stats computes order statistics over latency samples.
package stats

import (
	"math"
	"slices"
)

// Median returns the median of samples, averaging the two middle values for
// even-length input. Returns 0 for an empty slice. samples is not modified.
func Median(samples []float64) float64 {
	return NewDistribution(samples).Median()
}

// Percentile returns the p-th percentile (0-100) of samples using linear
// interpolation between the bracketing order statistics. Returns 0 for an
// empty slice. samples is not modified.
func Percentile(samples []float64, p float64) float64 {
	return NewDistribution(samples).Percentile(p)
}

// Distribution is a sorted copy of a sample set, so that several
// percentiles can be read without re-sorting.
type Distribution struct {
	sorted []float64
}

// NewDistribution copies and sorts samples
func NewDistribution(samples []float64) Distribution {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	slices.Sort(sorted)
	return Distribution{sorted: sorted}
}

// Len returns the number of samples
func (d Distribution) Len() int {
	return len(d.sorted)
}

// Min returns the smallest sample, or 0 when empty
func (d Distribution) Min() float64 {
	if len(d.sorted) == 0 {
		return 0
	}
	return d.sorted[0]
}

// Max returns the largest sample, or 0 when empty
func (d Distribution) Max() float64 {
	if len(d.sorted) == 0 {
		return 0
	}
	return d.sorted[len(d.sorted)-1]
}

// Median returns the middle value
func (d Distribution) Median() float64 {
	n := len(d.sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 0 {
		return (d.sorted[mid-1] + d.sorted[mid]) / 2
	}
	return d.sorted[mid]
}

// Percentile interpolates at index p/100 * (n-1). p is clamped to [0, 100].
func (d Distribution) Percentile(p float64) float64 {
	n := len(d.sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return d.sorted[0]
	}
	if p >= 100 {
		return d.sorted[n-1]
	}
	idx := p / 100 * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return d.sorted[lo]
	}
	frac := idx - float64(lo)
	v := d.sorted[lo] + (d.sorted[hi]-d.sorted[lo])*frac
	// rounding must not leave the bracketing samples
	return math.Min(math.Max(v, d.sorted[lo]), d.sorted[hi])
}
