package engine

import (
	"context"
	"math"

	"gocompare/domain/core"
	"gocompare/domain/stats"
)

// WelchStrategy compares group means with Welch's unequal-variance t-test.
type WelchStrategy struct {
	dist *Distributions
}

// NewWelchStrategy creates a new Welch's t-test strategy
func NewWelchStrategy() *WelchStrategy {
	return &WelchStrategy{dist: NewDistributions()}
}

// Name returns the strategy name
func (s *WelchStrategy) Name() stats.StrategyName {
	return stats.StrategyWelch
}

// Description returns a human-readable description
func (s *WelchStrategy) Description() string {
	return "Compares group means without assuming equal variances (Welch's t-test)"
}

// Run performs the test and fills a complete outcome. Degenerate samples
// yield NaN statistics rather than errors.
func (s *WelchStrategy) Run(ctx context.Context, a, b []float64, variable core.VariableKey, block core.BlockKey) (*stats.TestOutcome, error) {
	outcome, err := stats.NewTestOutcome(variable, block, stats.StrategyWelch)
	if err != nil {
		return nil, err
	}
	outcome.NA = len(a)
	outcome.NB = len(b)

	t, df := welchTTest(a, b)
	outcome.Statistic = t
	outcome.DF = df
	outcome.PValue = s.dist.TTestPValue(t, df)
	if !math.IsNaN(outcome.PValue) {
		outcome.PMethod = stats.PMethodTDist
	}

	d, ok := cohensD(a, b)
	outcome.EffectSize = d
	outcome.EffectUnit = stats.EffectUnitCohenD
	if !ok {
		outcome.Warn(stats.WarnZeroPooledSD)
	}

	return outcome, nil
}

// welchTTest computes the t-statistic and Welch-Satterthwaite degrees of
// freedom. Either is NaN when a group has fewer than two observations or
// both groups have zero variance.
func welchTTest(a, b []float64) (t, df float64) {
	na := float64(len(a))
	nb := float64(len(b))
	if na < 2 || nb < 2 {
		return math.NaN(), math.NaN()
	}

	meanA := sampleMean(a)
	meanB := sampleMean(b)
	varA := sampleVariance(a)
	varB := sampleVariance(b)

	vnA := varA / na
	vnB := varB / nb
	se := math.Sqrt(vnA + vnB)
	if se == 0 {
		return math.NaN(), math.NaN()
	}

	t = (meanA - meanB) / se

	// Welch-Satterthwaite equation
	df = (vnA + vnB) * (vnA + vnB) / (vnA*vnA/(na-1) + vnB*vnB/(nb-1))

	return t, df
}

// cohensD computes the standardized mean difference with a pooled standard
// deviation. ok is false when the pooled deviation is undefined or zero.
func cohensD(a, b []float64) (float64, bool) {
	na := float64(len(a))
	nb := float64(len(b))
	if na+nb-2 <= 0 {
		return math.NaN(), false
	}

	varA := sampleVariance(a)
	varB := sampleVariance(b)
	pooled := ((na-1)*varA + (nb-1)*varB) / (na + nb - 2)
	if math.IsNaN(pooled) || pooled <= 0 {
		return math.NaN(), false
	}

	return (sampleMean(a) - sampleMean(b)) / math.Sqrt(pooled), true
}
