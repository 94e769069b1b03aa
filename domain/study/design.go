// Package study models the design of a two-group comparison: which column
// splits the groups, which two labels are compared, how variables are
// organized into correction blocks, and which variables are checked for
// baseline comparability.
package study

import (
	"fmt"
	"os"
	"strings"

	"gocompare/domain/core"

	"gopkg.in/yaml.v3"
)

// DefaultAlpha is the significance threshold used for both the normality
// verdict and the correction families when the design does not override it.
const DefaultAlpha = 0.05

// VariableBlock is a named ordered set of variables that are reported and
// corrected together. Corrections never cross block boundaries.
type VariableBlock struct {
	Key       core.BlockKey      `yaml:"name" json:"name"`
	Variables []core.VariableKey `yaml:"variables" json:"variables"`
}

// BaselineSpec declares the variables checked for group comparability before
// the main analysis. Continuous is optional.
type BaselineSpec struct {
	Categorical []core.VariableKey `yaml:"categorical" json:"categorical"`
	Continuous  core.VariableKey   `yaml:"continuous,omitempty" json:"continuous,omitempty"`
}

// Design is the full study configuration. It is loaded once, validated, and
// treated as immutable for the duration of a run.
type Design struct {
	GroupColumn string `yaml:"group_column" json:"group_column"`
	GroupA      string `yaml:"group_a" json:"group_a"`
	GroupB      string `yaml:"group_b" json:"group_b"`

	// NormalityAlpha drives the normal / non-normal verdict (p > alpha).
	NormalityAlpha float64 `yaml:"normality_alpha" json:"normality_alpha"`
	// CorrectionAlpha is the family alpha for Holm and Benjamini-Hochberg.
	CorrectionAlpha float64 `yaml:"correction_alpha" json:"correction_alpha"`

	// Strategy names the two-sample test applied to every variable, or
	// "auto" to pick per variable from the normality verdicts.
	Strategy string `yaml:"strategy" json:"strategy"`

	Blocks   []VariableBlock `yaml:"blocks" json:"blocks"`
	Baseline BaselineSpec    `yaml:"baseline" json:"baseline"`
}

// Load reads and validates a design from a YAML file.
func Load(path string) (*Design, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read design file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a design from YAML bytes.
func Parse(raw []byte) (*Design, error) {
	var d Design
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse design: %w", err)
	}
	d.ApplyDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ApplyDefaults fills unset thresholds and strategy.
func (d *Design) ApplyDefaults() {
	if d.NormalityAlpha == 0 {
		d.NormalityAlpha = DefaultAlpha
	}
	if d.CorrectionAlpha == 0 {
		d.CorrectionAlpha = DefaultAlpha
	}
	if strings.TrimSpace(d.Strategy) == "" {
		d.Strategy = "mannwhitney"
	}
}

// Validate checks the structural invariants of the design. Whether the
// strategy name resolves to a registered test is checked by the engine, not
// here, so the design stays decoupled from the available strategies.
func (d *Design) Validate() error {
	if strings.TrimSpace(d.GroupColumn) == "" {
		return fmt.Errorf("%w: group_column is required", core.ErrInvalidDesign)
	}
	if strings.TrimSpace(d.GroupA) == "" || strings.TrimSpace(d.GroupB) == "" {
		return fmt.Errorf("%w: both group labels are required", core.ErrInvalidDesign)
	}
	if d.GroupA == d.GroupB {
		return fmt.Errorf("%w: group labels must differ (%q)", core.ErrInvalidDesign, d.GroupA)
	}
	if d.NormalityAlpha <= 0 || d.NormalityAlpha >= 1 {
		return fmt.Errorf("%w: normality_alpha must be in (0,1), got %v", core.ErrInvalidDesign, d.NormalityAlpha)
	}
	if d.CorrectionAlpha <= 0 || d.CorrectionAlpha >= 1 {
		return fmt.Errorf("%w: correction_alpha must be in (0,1), got %v", core.ErrInvalidDesign, d.CorrectionAlpha)
	}
	if len(d.Blocks) == 0 {
		return fmt.Errorf("%w: at least one variable block is required", core.ErrInvalidDesign)
	}

	seenBlocks := make(map[core.BlockKey]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		if strings.TrimSpace(b.Key.String()) == "" {
			return fmt.Errorf("%w: block with empty name", core.ErrInvalidDesign)
		}
		if seenBlocks[b.Key] {
			return fmt.Errorf("%w: duplicate block %q", core.ErrInvalidDesign, b.Key)
		}
		seenBlocks[b.Key] = true

		if len(b.Variables) == 0 {
			return fmt.Errorf("%w: block %q has no variables", core.ErrInvalidDesign, b.Key)
		}
		seenVars := make(map[core.VariableKey]bool, len(b.Variables))
		for _, v := range b.Variables {
			if strings.TrimSpace(v.String()) == "" {
				return fmt.Errorf("%w: block %q has an empty variable name", core.ErrInvalidDesign, b.Key)
			}
			if seenVars[v] {
				return fmt.Errorf("%w: block %q lists %q twice", core.ErrInvalidDesign, b.Key, v)
			}
			seenVars[v] = true
		}
	}
	return nil
}

// Block returns the block with the given key.
func (d *Design) Block(key core.BlockKey) (VariableBlock, bool) {
	for _, b := range d.Blocks {
		if b.Key == key {
			return b, true
		}
	}
	return VariableBlock{}, false
}

// Variables returns every block variable in design order. Variables shared
// between blocks appear once per block, since each appearance is corrected
// in its own family.
func (d *Design) Variables() []core.VariableKey {
	var keys []core.VariableKey
	for _, b := range d.Blocks {
		keys = append(keys, b.Variables...)
	}
	return keys
}

// Fingerprint computes a deterministic hash of the design, recorded with
// each run so results are traceable to the exact configuration.
func (d *Design) Fingerprint() core.DesignHash {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%g|%g|%s", d.GroupColumn, d.GroupA, d.GroupB, d.NormalityAlpha, d.CorrectionAlpha, d.Strategy)
	for _, blk := range d.Blocks {
		fmt.Fprintf(&b, "|%s:", blk.Key)
		for _, v := range blk.Variables {
			b.WriteString(v.String())
			b.WriteString(",")
		}
	}
	b.WriteString("|baseline:")
	for _, v := range d.Baseline.Categorical {
		b.WriteString(v.String())
		b.WriteString(",")
	}
	b.WriteString(d.Baseline.Continuous.String())
	return core.NewDesignHash([]byte(b.String()))
}
