// Package stats provides the descriptive statistics printed in job summaries.
// Callers pass only non-missing values, usually from table.Floats. Empty
// input reports ok=false.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean.
func Mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), true
}

// Median returns the 50th percentile.
func Median(xs []float64) (float64, bool) {
	return Quantile(xs, 0.5)
}

// Quantile returns the p-th quantile, interpolating linearly between the
// closest order statistics.
func Quantile(xs []float64, p float64) (float64, bool) {
	if len(xs) == 0 || p < 0 || p > 1 {
		return 0, false
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p), true
}

func quantileSorted(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Std returns the sample standard deviation (n-1 denominator). A single
// value has no spread to estimate and reports ok=false.
func Std(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	m, _ := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1)), true
}

// Min returns the smallest value.
func Min(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m, true
}

// Max returns the largest value.
func Max(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m, true
}

// Sum adds the values.
func Sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// Description is the eight-number summary of a numeric column.
type Description struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	P25   float64
	P50   float64
	P75   float64
	Max   float64
	// HasStd is false when there are fewer than two values.
	HasStd bool
}

// Describe summarizes xs.
func Describe(xs []float64) (Description, bool) {
	if len(xs) == 0 {
		return Description{}, false
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	d := Description{
		Count: len(sorted),
		Min:   sorted[0],
		P25:   quantileSorted(sorted, 0.25),
		P50:   quantileSorted(sorted, 0.5),
		P75:   quantileSorted(sorted, 0.75),
		Max:   sorted[len(sorted)-1],
	}
	d.Mean, _ = Mean(sorted)
	d.Std, d.HasStd = Std(sorted)
	return d, true
}

// Pearson returns the correlation of paired samples. Pairs must have equal
// length and at least two elements with non-zero variance.
func Pearson(xs, ys []float64) (float64, bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	mx, _ := Mean(xs)
	my, _ := Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}
