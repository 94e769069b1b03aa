package engine

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// orNaN collapses the (value, error) pairs returned by the stats library into
// NaN, so undefined statistics propagate instead of erroring.
func orNaN(value float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return value
}

// sampleMean returns the arithmetic mean, NaN for an empty sample.
func sampleMean(data []float64) float64 {
	return orNaN(stats.Mean(data))
}

// sampleVariance returns the n-1 variance, NaN below two observations.
func sampleVariance(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return orNaN(stats.SampleVariance(data))
}

// sampleSD returns the n-1 standard deviation, NaN below two observations.
func sampleSD(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return orNaN(stats.StandardDeviationSample(data))
}

// sampleRange returns min and max, NaN for an empty sample.
func sampleRange(data []float64) (float64, float64) {
	return orNaN(stats.Min(data)), orNaN(stats.Max(data))
}

// sampleMedian returns the median, NaN for an empty sample.
func sampleMedian(data []float64) float64 {
	return orNaN(stats.Median(data))
}

// linearQuantile computes the q-th quantile with linear interpolation between
// order statistics: position h = (n-1)q, interpolating between the values at
// floor(h) and ceil(h). The input must already be sorted ascending.
func linearQuantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// sortedCopy returns an ascending copy of the sample.
func sortedCopy(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	sort.Float64s(out)
	return out
}
