package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"gocompare/domain/core"
	"gocompare/domain/dataset"
	"gocompare/domain/study"
)

// DemoGeneratorConfig configures the demo dataset generator.
type DemoGeneratorConfig struct {
	ParticipantsPerGroup int     `json:"participants_per_group"`
	AccuracyShift        float64 `json:"accuracy_shift"`  // mean accuracy advantage of group B
	CompletionRatio      float64 `json:"completion_ratio"` // multiplicative completion-time advantage of group B
	MissingRate          float64 `json:"missing_rate"`    // chance of a blank completion_ms cell
	Seed                 int64   `json:"seed"`
}

// DefaultDemoConfig returns a dataset large enough for the normality test to
// have real power, with a clear group effect on every outcome variable.
func DefaultDemoConfig() DemoGeneratorConfig {
	return DemoGeneratorConfig{
		ParticipantsPerGroup: 24,
		AccuracyShift:        6.0,
		CompletionRatio:      0.85,
		MissingRate:          0.04,
		Seed:                 42,
	}
}

// DemoDataGenerator builds a synthetic two-group usability study: a tactile
// interface condition against a gesture condition, with normal, skewed, and
// categorical variables so every pipeline stage has something to chew on.
type DemoDataGenerator struct {
	config DemoGeneratorConfig
	rng    *rand.Rand
}

// NewDemoDataGenerator creates a generator with the given config.
func NewDemoDataGenerator(config DemoGeneratorConfig) *DemoDataGenerator {
	return &DemoDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var demoHeaders = []string{
	"participant_id", "condition", "accuracy", "completion_ms",
	"error_count", "satisfaction", "age", "gender", "handedness",
}

// GenerateFrame produces the demo dataset as an immutable frame.
func (g *DemoDataGenerator) GenerateFrame() (*dataset.Frame, error) {
	rows := make([][]string, 0, 2*g.config.ParticipantsPerGroup)
	for i := 0; i < g.config.ParticipantsPerGroup; i++ {
		rows = append(rows, g.participantRow(len(rows)+1, "tactile"))
	}
	for i := 0; i < g.config.ParticipantsPerGroup; i++ {
		rows = append(rows, g.participantRow(len(rows)+1, "gesture"))
	}
	return dataset.NewFrame(demoHeaders, rows)
}

func (g *DemoDataGenerator) participantRow(seq int, condition string) []string {
	// Accuracy is roughly normal; the gesture group scores higher.
	accuracy := 74.0 + g.rng.NormFloat64()*7.0
	if condition == "gesture" {
		accuracy += g.config.AccuracyShift
	}
	accuracy = clamp(accuracy, 0, 100)

	// Completion time is log-normal, so the auto policy routes it to the
	// rank test. The gesture group finishes faster.
	completion := math.Exp(8.3 + g.rng.NormFloat64()*0.45)
	if condition == "gesture" {
		completion *= g.config.CompletionRatio
	}

	errCount := g.rng.Intn(4)
	if condition == "tactile" {
		errCount += g.rng.Intn(3)
	}

	satisfaction := 3 + g.rng.Intn(4)
	if condition == "gesture" && satisfaction < 7 {
		satisfaction++
	}

	completionCell := strconv.FormatFloat(completion, 'f', 0, 64)
	if g.rng.Float64() < g.config.MissingRate {
		completionCell = ""
	}

	gender := "female"
	if g.rng.Float64() < 0.5 {
		gender = "male"
	}
	handedness := "right"
	if g.rng.Float64() < 0.12 {
		handedness = "left"
	}

	return []string{
		fmt.Sprintf("p%03d", seq),
		condition,
		strconv.FormatFloat(accuracy, 'f', 1, 64),
		completionCell,
		strconv.Itoa(errCount),
		strconv.Itoa(satisfaction),
		strconv.Itoa(19 + g.rng.Intn(28)),
		gender,
		handedness,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DemoDesign returns the study design matching the demo dataset.
func DemoDesign() *study.Design {
	design := &study.Design{
		GroupColumn: "condition",
		GroupA:      "tactile",
		GroupB:      "gesture",
		Strategy:    "auto",
		Blocks: []study.VariableBlock{
			{Key: "performance", Variables: []core.VariableKey{"accuracy", "error_count"}},
			{Key: "timing", Variables: []core.VariableKey{"completion_ms"}},
			{Key: "experience", Variables: []core.VariableKey{"satisfaction"}},
		},
		Baseline: study.BaselineSpec{
			Categorical: []core.VariableKey{"gender", "handedness"},
			Continuous:  "age",
		},
	}
	design.ApplyDefaults()
	return design
}
