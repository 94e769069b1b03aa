package stats

import (
	"math"

	"gocompare/domain/core"
)

// ============================================================================
// REPORT AGGREGATE (complete output of one analysis run)
// ============================================================================

// BlockResult holds every result produced for one variable block, in the
// block's design order. Corrections inside Outcomes were computed against
// this block only.
type BlockResult struct {
	Block        core.BlockKey      `json:"block"`
	Descriptives []Descriptives     `json:"descriptives"`
	Normality    []NormalityCheck   `json:"normality"`
	Outcomes     []CorrectedOutcome `json:"outcomes"`
	Skipped      []SkipNotice       `json:"skipped,omitempty"`
}

// AnalysisReport is the full result of one run: baseline comparability checks
// followed by per-block descriptives, normality checks, and corrected tests.
type AnalysisReport struct {
	RunID core.RunID `json:"run_id"`

	GroupColumn string `json:"group_column"`
	GroupA      string `json:"group_a"`
	GroupB      string `json:"group_b"`

	Strategy        StrategyName `json:"strategy"` // requested, possibly "auto"
	NormalityAlpha  float64      `json:"normality_alpha"`
	CorrectionAlpha float64      `json:"correction_alpha"`

	DesignHash core.DesignHash `json:"design_hash"`
	FrameHash  core.FrameHash  `json:"frame_hash"`

	Baseline        []BaselineOutcome `json:"baseline"`
	BaselineSkipped []SkipNotice      `json:"baseline_skipped,omitempty"`
	Blocks          []BlockResult     `json:"blocks"`

	StartedAt  core.Timestamp `json:"started_at"`
	FinishedAt core.Timestamp `json:"finished_at"`
}

// RuntimeMs returns the wall-clock duration of the run in milliseconds.
func (r *AnalysisReport) RuntimeMs() int64 {
	return r.FinishedAt.Time().Sub(r.StartedAt.Time()).Milliseconds()
}

// Outcomes returns every corrected outcome flattened in block order.
func (r *AnalysisReport) Outcomes() []CorrectedOutcome {
	var out []CorrectedOutcome
	for _, b := range r.Blocks {
		out = append(out, b.Outcomes...)
	}
	return out
}

// TestedCount counts outcomes whose raw p-value is defined.
func (r *AnalysisReport) TestedCount() int {
	n := 0
	for _, o := range r.Outcomes() {
		if !math.IsNaN(o.Raw.PValue) {
			n++
		}
	}
	return n
}

// HolmRejections counts outcomes significant after Holm correction.
func (r *AnalysisReport) HolmRejections() int {
	n := 0
	for _, o := range r.Outcomes() {
		if o.HolmReject {
			n++
		}
	}
	return n
}

// BHRejections counts outcomes significant after Benjamini-Hochberg correction.
func (r *AnalysisReport) BHRejections() int {
	n := 0
	for _, o := range r.Outcomes() {
		if o.BHReject {
			n++
		}
	}
	return n
}

// SkippedCount counts skip notices across baseline and all blocks.
func (r *AnalysisReport) SkippedCount() int {
	n := len(r.BaselineSkipped)
	for _, b := range r.Blocks {
		n += len(b.Skipped)
	}
	return n
}

// ============================================================================
// PAYLOADS (flat JSON structure shared by storage and transport)
// ============================================================================
//
// encoding/json rejects NaN, and several result fields are NaN by contract.
// Payload mirrors carry those fields as pointers, nil where undefined, so the
// same shape serves the database blob, the API, and the dashboard.

// ReportPayload is the JSON-safe form of AnalysisReport.
type ReportPayload struct {
	RunID string `json:"run_id"`

	GroupColumn string `json:"group_column"`
	GroupA      string `json:"group_a"`
	GroupB      string `json:"group_b"`

	Strategy        string  `json:"strategy"`
	NormalityAlpha  float64 `json:"normality_alpha"`
	CorrectionAlpha float64 `json:"correction_alpha"`

	DesignHash string `json:"design_hash"`
	FrameHash  string `json:"frame_hash"`

	Baseline        []BaselinePayload `json:"baseline"`
	BaselineSkipped []SkipNotice      `json:"baseline_skipped,omitempty"`
	Blocks          []BlockPayload    `json:"blocks"`

	StartedAt  core.Timestamp `json:"started_at"`
	FinishedAt core.Timestamp `json:"finished_at"`
}

// BlockPayload is the JSON-safe form of BlockResult.
type BlockPayload struct {
	Block        string                `json:"block"`
	Descriptives []DescriptivesPayload `json:"descriptives"`
	Normality    []NormalityPayload    `json:"normality"`
	Outcomes     []OutcomePayload      `json:"outcomes"`
	Skipped      []SkipNotice          `json:"skipped,omitempty"`
}

// DescriptivesPayload is the JSON-safe form of Descriptives.
type DescriptivesPayload struct {
	Group    string   `json:"group"`
	Variable string   `json:"variable"`
	N        int      `json:"n"`
	Mean     *float64 `json:"mean"`
	SD       *float64 `json:"sd"`
	Min      *float64 `json:"min"`
	Q1       *float64 `json:"q1"`
	Median   *float64 `json:"median"`
	Q3       *float64 `json:"q3"`
	Max      *float64 `json:"max"`
}

// NormalityPayload is the JSON-safe form of NormalityCheck.
type NormalityPayload struct {
	Group    string        `json:"group"`
	Variable string        `json:"variable"`
	N        int           `json:"n"`
	W        *float64      `json:"w"`
	PValue   *float64      `json:"p_value"`
	Verdict  string        `json:"verdict"`
	Warnings []WarningCode `json:"warnings,omitempty"`
}

// OutcomePayload flattens a corrected outcome and its raw evidence into one row.
type OutcomePayload struct {
	Variable string `json:"variable"`
	Block    string `json:"block"`
	Strategy string `json:"strategy"`

	Statistic  *float64 `json:"statistic"`
	Z          *float64 `json:"z"`
	DF         *float64 `json:"df"`
	PValue     *float64 `json:"p_value"`
	PMethod    string   `json:"p_method"`
	EffectSize *float64 `json:"effect_size"`
	EffectUnit string   `json:"effect_unit,omitempty"`

	NA int `json:"n_a"`
	NB int `json:"n_b"`

	HolmP      *float64 `json:"holm_p"`
	HolmReject bool     `json:"holm_reject"`
	BHQ        *float64 `json:"bh_q"`
	BHReject   bool     `json:"bh_reject"`
	FamilySize int      `json:"family_size"`

	Warnings []WarningCode `json:"warnings,omitempty"`
}

// BaselinePayload is the JSON-safe form of BaselineOutcome.
type BaselinePayload struct {
	Variable   string        `json:"variable"`
	Kind       string        `json:"kind"`
	Statistic  *float64      `json:"statistic"`
	DF         *float64      `json:"df"`
	PValue     *float64      `json:"p_value"`
	PMethod    string        `json:"p_method"`
	EffectSize *float64      `json:"effect_size"`
	EffectUnit string        `json:"effect_unit,omitempty"`
	N          int           `json:"n"`
	NA         int           `json:"n_a"`
	NB         int           `json:"n_b"`
	Warnings   []WarningCode `json:"warnings,omitempty"`
}

// ToPayload converts the report to its flat JSON-safe form.
func (r *AnalysisReport) ToPayload() ReportPayload {
	p := ReportPayload{
		RunID:           r.RunID.String(),
		GroupColumn:     r.GroupColumn,
		GroupA:          r.GroupA,
		GroupB:          r.GroupB,
		Strategy:        string(r.Strategy),
		NormalityAlpha:  r.NormalityAlpha,
		CorrectionAlpha: r.CorrectionAlpha,
		DesignHash:      r.DesignHash.String(),
		FrameHash:       r.FrameHash.String(),
		BaselineSkipped: r.BaselineSkipped,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
	}
	p.Baseline = make([]BaselinePayload, 0, len(r.Baseline))
	for _, b := range r.Baseline {
		p.Baseline = append(p.Baseline, b.ToPayload())
	}
	p.Blocks = make([]BlockPayload, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		p.Blocks = append(p.Blocks, b.ToPayload())
	}
	return p
}

// ToPayload converts one block's results to their flat JSON-safe form.
func (b BlockResult) ToPayload() BlockPayload {
	p := BlockPayload{
		Block:        b.Block.String(),
		Descriptives: make([]DescriptivesPayload, 0, len(b.Descriptives)),
		Normality:    make([]NormalityPayload, 0, len(b.Normality)),
		Outcomes:     make([]OutcomePayload, 0, len(b.Outcomes)),
		Skipped:      b.Skipped,
	}
	for _, d := range b.Descriptives {
		p.Descriptives = append(p.Descriptives, d.ToPayload())
	}
	for _, nc := range b.Normality {
		p.Normality = append(p.Normality, nc.ToPayload())
	}
	for _, o := range b.Outcomes {
		p.Outcomes = append(p.Outcomes, o.ToPayload())
	}
	return p
}

// ToPayload converts the descriptives row to its JSON-safe form.
func (d Descriptives) ToPayload() DescriptivesPayload {
	return DescriptivesPayload{
		Group:    d.Group,
		Variable: d.Variable.String(),
		N:        d.N,
		Mean:     finitePtr(d.Mean),
		SD:       finitePtr(d.SD),
		Min:      finitePtr(d.Min),
		Q1:       finitePtr(d.Q1),
		Median:   finitePtr(d.Median),
		Q3:       finitePtr(d.Q3),
		Max:      finitePtr(d.Max),
	}
}

// ToPayload converts the normality check to its JSON-safe form.
func (n NormalityCheck) ToPayload() NormalityPayload {
	return NormalityPayload{
		Group:    n.Group,
		Variable: n.Variable.String(),
		N:        n.N,
		W:        finitePtr(n.W),
		PValue:   finitePtr(n.PValue),
		Verdict:  string(n.Verdict),
		Warnings: n.Warnings,
	}
}

// ToPayload flattens the corrected outcome to its JSON-safe form.
func (c CorrectedOutcome) ToPayload() OutcomePayload {
	return OutcomePayload{
		Variable:   c.Raw.Variable.String(),
		Block:      c.Raw.Block.String(),
		Strategy:   string(c.Raw.Strategy),
		Statistic:  finitePtr(c.Raw.Statistic),
		Z:          finitePtr(c.Raw.Z),
		DF:         finitePtr(c.Raw.DF),
		PValue:     finitePtr(c.Raw.PValue),
		PMethod:    string(c.Raw.PMethod),
		EffectSize: finitePtr(c.Raw.EffectSize),
		EffectUnit: c.Raw.EffectUnit,
		NA:         c.Raw.NA,
		NB:         c.Raw.NB,
		HolmP:      finitePtr(c.HolmP),
		HolmReject: c.HolmReject,
		BHQ:        finitePtr(c.BHQ),
		BHReject:   c.BHReject,
		FamilySize: c.FamilySize,
		Warnings:   c.Raw.Warnings,
	}
}

// ToPayload converts the baseline outcome to its JSON-safe form.
func (b BaselineOutcome) ToPayload() BaselinePayload {
	return BaselinePayload{
		Variable:   b.Variable.String(),
		Kind:       string(b.Kind),
		Statistic:  finitePtr(b.Statistic),
		DF:         finitePtr(b.DF),
		PValue:     finitePtr(b.PValue),
		PMethod:    string(b.PMethod),
		EffectSize: finitePtr(b.EffectSize),
		EffectUnit: b.EffectUnit,
		N:          b.N,
		NA:         b.NA,
		NB:         b.NB,
		Warnings:   b.Warnings,
	}
}

// finitePtr returns a pointer to f, or nil when f is NaN or infinite and has
// no JSON representation.
func finitePtr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	v := f
	return &v
}
