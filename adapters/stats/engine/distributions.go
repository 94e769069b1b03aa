package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides unified access to the reference distributions used
// by the test strategies. Every p-value in the pipeline flows through here so
// tail conventions stay in one place.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// TTestPValue computes the two-sided p-value for a t-statistic. The degrees
// of freedom may be fractional (Welch-Satterthwaite).
func (d *Distributions) TTestPValue(tStatistic, degreesOfFreedom float64) float64 {
	if math.IsNaN(tStatistic) || math.IsNaN(degreesOfFreedom) || degreesOfFreedom <= 0 {
		return math.NaN()
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}

	// Two-tailed test
	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// ChiSquarePValue computes the upper-tail p-value for a chi-square statistic.
func (d *Distributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}
	if math.IsNaN(chiSquare) {
		return math.NaN()
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return 1 - chiDist.CDF(chiSquare)
}

// NormalSurvival computes the upper-tail probability for a standard normal.
func (d *Distributions) NormalSurvival(z float64) float64 {
	return distuv.UnitNormal.Survival(z)
}

// NormalQuantile computes the quantile function for a standard normal
// (inverse CDF).
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
