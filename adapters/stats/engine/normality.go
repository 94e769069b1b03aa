package engine

import (
	"math"

	"gocompare/domain/core"
	"gocompare/domain/stats"
)

// CheckNormality runs the Shapiro-Wilk test on one group sample and renders
// the verdict against alpha. Two degenerate inputs bypass the test:
//
//   - n < 3: the test is undefined, so normality is assumed and flagged.
//   - zero range: a constant sample is treated as trivially normal with
//     W = 1, p = 1, and a warning, instead of failing the whole variable.
func CheckNormality(group string, variable core.VariableKey, sample []float64, alpha float64) stats.NormalityCheck {
	check := stats.NormalityCheck{
		Group:    group,
		Variable: variable,
		N:        len(sample),
		W:        math.NaN(),
		PValue:   math.NaN(),
	}

	if len(sample) < 3 {
		check.Verdict = stats.VerdictAssumedNormal
		check.Warnings = append(check.Warnings, stats.WarnSmallSample)
		return check
	}

	min, max := sampleRange(sample)
	if max-min == 0 {
		check.W = 1
		check.PValue = 1
		check.Verdict = stats.VerdictNormal
		check.Warnings = append(check.Warnings, stats.WarnZeroRange)
		return check
	}

	w, p, err := ShapiroWilk(sample)
	if err != nil {
		// Unreachable given the guards above, but fail safe.
		check.Verdict = stats.VerdictAssumedNormal
		check.Warnings = append(check.Warnings, stats.WarnSmallSample)
		return check
	}

	check.W = w
	check.PValue = p
	if p > alpha {
		check.Verdict = stats.VerdictNormal
	} else {
		check.Verdict = stats.VerdictNonNormal
	}
	return check
}
