package engine

import (
	"gocompare/domain/core"
	"gocompare/domain/stats"
)

// Summarize computes the descriptive row for one group's sample. Statistics
// that the sample size cannot define come back NaN rather than erroring, so
// a sparse variable still produces a row.
func Summarize(group string, variable core.VariableKey, sample []float64) stats.Descriptives {
	d := stats.Descriptives{
		Group:    group,
		Variable: variable,
		N:        len(sample),
	}

	d.Mean = sampleMean(sample)
	d.SD = sampleSD(sample)
	d.Min, d.Max = sampleRange(sample)
	d.Median = sampleMedian(sample)

	sorted := sortedCopy(sample)
	d.Q1 = linearQuantile(sorted, 0.25)
	d.Q3 = linearQuantile(sorted, 0.75)

	return d
}
