package engine

import (
	"context"
	"math"

	"gocompare/domain/core"
	"gocompare/domain/dataset"
	"gocompare/domain/stats"
	"gocompare/domain/study"
	"gocompare/internal"
)

// BaselineAnalyzer checks whether the two groups are comparable before the
// main analysis: chi-square independence for categorical variables and a
// Welch's t-test for the optional continuous one. A variable that cannot be
// checked produces a skip notice, never a failed run.
type BaselineAnalyzer struct {
	dist   *Distributions
	logger *internal.Logger
}

// NewBaselineAnalyzer creates a baseline analyzer.
func NewBaselineAnalyzer(logger *internal.Logger) *BaselineAnalyzer {
	return &BaselineAnalyzer{
		dist:   NewDistributions(),
		logger: logger.WithPrefix("Baseline"),
	}
}

// Run evaluates every baseline variable in the design against the dataset.
func (a *BaselineAnalyzer) Run(ctx context.Context, frame *dataset.Frame, design *study.Design) ([]stats.BaselineOutcome, []stats.SkipNotice) {
	outcomes := []stats.BaselineOutcome{}
	skipped := []stats.SkipNotice{}

	for _, variable := range design.Baseline.Categorical {
		if !frame.HasColumn(variable.String()) {
			a.logger.Warn("categorical variable %q not in dataset, skipping", variable)
			skipped = append(skipped, stats.SkipNotice{
				Variable: variable,
				Stage:    stats.StageBaseline,
				Reason:   stats.SkipMissingVariable,
				Detail:   "column not found",
			})
			continue
		}

		pairs, err := frame.CategoricalPairs(design.GroupColumn, variable)
		if err != nil || len(pairs) == 0 {
			a.logger.Warn("categorical variable %q has no complete observations, skipping", variable)
			skipped = append(skipped, stats.SkipNotice{
				Variable: variable,
				Stage:    stats.StageBaseline,
				Reason:   stats.SkipInsufficientData,
				Detail:   "no complete observations",
			})
			continue
		}

		outcomes = append(outcomes, a.categorical(variable, pairs))
	}

	if design.Baseline.Continuous != "" {
		outcome, notice := a.continuous(frame, design)
		if notice != nil {
			skipped = append(skipped, *notice)
		} else {
			outcomes = append(outcomes, *outcome)
		}
	}

	a.logger.Info("checked %d baseline variables, skipped %d", len(outcomes), len(skipped))
	return outcomes, skipped
}

// categorical cross-tabulates one variable against every observed group
// label and tests independence.
func (a *BaselineAnalyzer) categorical(variable core.VariableKey, pairs [][2]string) stats.BaselineOutcome {
	table := NewContingencyTable(pairs)
	result := ChiSquareTest(table)

	return stats.BaselineOutcome{
		Variable:   variable,
		Kind:       stats.BaselineCategorical,
		Statistic:  result.ChiSquare,
		DF:         float64(result.DF),
		PValue:     result.PValue,
		PMethod:    stats.PMethodChiSquare,
		EffectSize: result.CramersV,
		EffectUnit: stats.EffectUnitCramersV,
		N:          result.N,
	}
}

// continuous compares group means of the continuous baseline variable with
// Welch's t-test. Groups below two observations cannot support the test and
// are skipped with a notice.
func (a *BaselineAnalyzer) continuous(frame *dataset.Frame, design *study.Design) (*stats.BaselineOutcome, *stats.SkipNotice) {
	variable := design.Baseline.Continuous
	if !frame.HasColumn(variable.String()) {
		a.logger.Warn("continuous variable %q not in dataset, skipping", variable)
		return nil, &stats.SkipNotice{
			Variable: variable,
			Stage:    stats.StageBaseline,
			Reason:   stats.SkipMissingVariable,
			Detail:   "column not found",
		}
	}

	sampleA, errA := frame.NumericSample(design.GroupColumn, design.GroupA, variable)
	sampleB, errB := frame.NumericSample(design.GroupColumn, design.GroupB, variable)
	if errA != nil || errB != nil || len(sampleA) < 2 || len(sampleB) < 2 {
		a.logger.Warn("continuous variable %q needs at least two observations per group, skipping", variable)
		return nil, &stats.SkipNotice{
			Variable: variable,
			Stage:    stats.StageBaseline,
			Reason:   stats.SkipInsufficientData,
			Detail:   "fewer than two observations in a group",
		}
	}

	t, df := welchTTest(sampleA, sampleB)
	outcome := &stats.BaselineOutcome{
		Variable:   variable,
		Kind:       stats.BaselineContinuous,
		Statistic:  t,
		DF:         df,
		PValue:     a.dist.TTestPValue(t, df),
		PMethod:    stats.PMethodTDist,
		EffectSize: math.NaN(),
		N:          len(sampleA) + len(sampleB),
		NA:         len(sampleA),
		NB:         len(sampleB),
	}
	return outcome, nil
}
