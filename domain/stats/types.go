package stats

import (
	"fmt"
	"math"

	"gocompare/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// StrategyName identifies a two-sample test strategy.
type StrategyName string

const (
	StrategyWelch       StrategyName = "welch"       // Welch's unequal-variance t-test
	StrategyMannWhitney StrategyName = "mannwhitney" // Mann-Whitney U rank test
	StrategyAuto        StrategyName = "auto"        // resolved per variable from normality verdicts
)

// Verdict is the normality judgment for one group sample.
type Verdict string

const (
	VerdictNormal        Verdict = "normal"
	VerdictNonNormal     Verdict = "non_normal"
	VerdictAssumedNormal Verdict = "assumed_normal" // n < 3, test not applicable
)

// Normal reports whether the verdict counts as normal for strategy selection.
func (v Verdict) Normal() bool {
	return v == VerdictNormal || v == VerdictAssumedNormal
}

// PMethod names how a p-value was derived.
type PMethod string

const (
	PMethodTDist     PMethod = "t_distribution"       // Student's t with Welch df
	PMethodExact     PMethod = "exact"                // exact U distribution enumeration
	PMethodNormal    PMethod = "normal_approximation" // continuity-corrected normal
	PMethodChiSquare PMethod = "chi_square"
	PMethodUndefined PMethod = "undefined" // degenerate input, p is NaN
)

// WarningCode represents structured warning types attached to results.
type WarningCode string

const (
	WarnSmallSample     WarningCode = "SMALL_SAMPLE"     // n < 3, normality assumed
	WarnZeroRange       WarningCode = "ZERO_RANGE"       // all values identical in a sample
	WarnDegenerateRanks WarningCode = "DEGENERATE_RANKS" // every pooled value tied, rank variance zero
	WarnZeroPooledSD    WarningCode = "ZERO_POOLED_SD"   // standardized effect undefined
	WarnTiesPresent     WarningCode = "TIES_PRESENT"     // tie correction applied to rank variance
)

// SkipReason explains why a variable produced no result at some stage.
type SkipReason string

const (
	SkipMissingVariable  SkipReason = "MISSING_VARIABLE"  // column absent from the dataset
	SkipEmptyGroup       SkipReason = "EMPTY_GROUP"       // no numeric observations in a group
	SkipInsufficientData SkipReason = "INSUFFICIENT_DATA" // below the stage's minimum group size
)

// EffectUnit values used in results.
const (
	EffectUnitCohenD       = "d" // standardized mean difference, pooled SD
	EffectUnitRankBiserial = "r" // |Z| / sqrt(N) for rank tests
	EffectUnitCramersV     = "V"
)

// ============================================================================
// PER-VARIABLE RESULTS
// ============================================================================

// Descriptives summarizes one group's sample for one variable.
// All statistics are NaN when N is too small to define them.
type Descriptives struct {
	Group    string           `json:"group"`
	Variable core.VariableKey `json:"variable"`
	N        int              `json:"n"`
	Mean     float64          `json:"mean"`
	SD       float64          `json:"sd"` // sample standard deviation (n-1)
	Min      float64          `json:"min"`
	Q1       float64          `json:"q1"`
	Median   float64          `json:"median"`
	Q3       float64          `json:"q3"`
	Max      float64          `json:"max"`
}

// NormalityCheck is the Shapiro-Wilk result for one group sample.
// W and PValue are NaN when the verdict is assumed rather than tested.
type NormalityCheck struct {
	Group    string           `json:"group"`
	Variable core.VariableKey `json:"variable"`
	N        int              `json:"n"`
	W        float64          `json:"w"`
	PValue   float64          `json:"p_value"`
	Verdict  Verdict          `json:"verdict"`
	Warnings []WarningCode    `json:"warnings,omitempty"`
}

// TestOutcome is the uncorrected result of one two-sample test.
// INVARIANTS:
// - Variable and Block always set
// - PValue in [0,1] or NaN (degenerate input never errors, it yields NaN)
// - fields a strategy does not define are NaN (Z for Welch, DF for Mann-Whitney)
type TestOutcome struct {
	Variable core.VariableKey `json:"variable"`
	Block    core.BlockKey    `json:"block"`
	Strategy StrategyName     `json:"strategy"`

	Statistic  float64 `json:"statistic"` // t for Welch, U for Mann-Whitney
	Z          float64 `json:"z"`
	DF         float64 `json:"df"`
	PValue     float64 `json:"p_value"`
	PMethod    PMethod `json:"p_method"`
	EffectSize float64 `json:"effect_size"`
	EffectUnit string  `json:"effect_unit,omitempty"`

	NA int `json:"n_a"`
	NB int `json:"n_b"`

	Warnings []WarningCode `json:"warnings,omitempty"`
}

// ============================================================================
// CORRECTED RESULTS (compose the raw outcome, never mutate it)
// ============================================================================

// CorrectedOutcome pairs a raw test outcome with its family-wise and false
// discovery rate corrections. The raw outcome is embedded untouched so the
// uncorrected evidence stays auditable next to the corrected decision.
type CorrectedOutcome struct {
	Raw TestOutcome `json:"raw"`

	HolmP      float64 `json:"holm_p"`
	HolmReject bool    `json:"holm_reject"`
	BHQ        float64 `json:"bh_q"`
	BHReject   bool    `json:"bh_reject"`

	// FamilySize counts the valid (non-NaN) p-values corrected together.
	FamilySize int `json:"family_size"`
}

// ============================================================================
// BASELINE COMPARABILITY
// ============================================================================

// BaselineKind distinguishes the two baseline checks.
type BaselineKind string

const (
	BaselineCategorical BaselineKind = "categorical" // chi-square on a contingency table
	BaselineContinuous  BaselineKind = "continuous"  // Welch's t-test on group means
)

// BaselineOutcome is one pre-analysis comparability check between the groups.
// EffectSize is Cramér's V for categorical checks and NaN for continuous ones.
type BaselineOutcome struct {
	Variable   core.VariableKey `json:"variable"`
	Kind       BaselineKind     `json:"kind"`
	Statistic  float64          `json:"statistic"` // chi-square or t
	DF         float64          `json:"df"`
	PValue     float64          `json:"p_value"`
	PMethod    PMethod          `json:"p_method"`
	EffectSize float64          `json:"effect_size"`
	EffectUnit string           `json:"effect_unit,omitempty"`
	N          int              `json:"n"`   // total observations in the table
	NA         int              `json:"n_a"` // continuous only
	NB         int              `json:"n_b"` // continuous only
	Warnings   []WarningCode    `json:"warnings,omitempty"`
}

// Pipeline stages that can produce skip notices.
const (
	StageBaseline = "baseline"
	StageBlock    = "block" // variable unusable for every stage of its block
	StageTests    = "tests"
)

// SkipNotice records a variable that produced no result and why.
type SkipNotice struct {
	Variable core.VariableKey `json:"variable"`
	Block    core.BlockKey    `json:"block,omitempty"`
	Stage    string           `json:"stage"`
	Reason   SkipReason       `json:"reason"`
	Detail   string           `json:"detail,omitempty"`
}

// ============================================================================
// CONSTRUCTORS
// ============================================================================

// NewTestOutcome creates a test outcome with validation.
func NewTestOutcome(variable core.VariableKey, block core.BlockKey, strategy StrategyName) (*TestOutcome, error) {
	if variable == "" {
		return nil, fmt.Errorf("%w: test outcome requires a variable", core.ErrInvalidFrame)
	}
	if block == "" {
		return nil, fmt.Errorf("%w: test outcome requires a block", core.ErrInvalidFrame)
	}
	if strategy != StrategyWelch && strategy != StrategyMannWhitney {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownStrategy, strategy)
	}
	return &TestOutcome{
		Variable:   variable,
		Block:      block,
		Strategy:   strategy,
		Statistic:  math.NaN(),
		Z:          math.NaN(),
		DF:         math.NaN(),
		PValue:     math.NaN(),
		PMethod:    PMethodUndefined,
		EffectSize: math.NaN(),
	}, nil
}

// MustNewTestOutcome creates a test outcome (panics on invalid input).
// Use only in tests and development - production code should handle validation errors
func MustNewTestOutcome(variable core.VariableKey, block core.BlockKey, strategy StrategyName) *TestOutcome {
	outcome, err := NewTestOutcome(variable, block, strategy)
	if err != nil {
		panic(err)
	}
	return outcome
}

// Validate checks the outcome invariants after the strategy filled it in.
func (o *TestOutcome) Validate() error {
	if o.Variable == "" || o.Block == "" {
		return fmt.Errorf("%w: outcome missing variable or block", core.ErrInvalidFrame)
	}
	if !math.IsNaN(o.PValue) && (o.PValue < 0.0 || o.PValue > 1.0) {
		return fmt.Errorf("p-value must be in [0.0, 1.0] or NaN, got %f", o.PValue)
	}
	if o.NA < 0 || o.NB < 0 {
		return fmt.Errorf("group sizes must be non-negative, got %d and %d", o.NA, o.NB)
	}
	return nil
}

// Warn appends a warning code if it is not already present.
func (o *TestOutcome) Warn(code WarningCode) {
	for _, w := range o.Warnings {
		if w == code {
			return
		}
	}
	o.Warnings = append(o.Warnings, code)
}

// NewCorrectedOutcome wraps a raw outcome with NaN corrections, the state of
// an outcome whose p-value could not join a correction family.
func NewCorrectedOutcome(raw TestOutcome) CorrectedOutcome {
	return CorrectedOutcome{
		Raw:        raw,
		HolmP:      math.NaN(),
		HolmReject: false,
		BHQ:        math.NaN(),
		BHReject:   false,
		FamilySize: 0,
	}
}
