// Package engine implements the statistical pipeline for two-group
// comparisons: descriptive summaries, Shapiro-Wilk normality checks,
// registry-dispatched test strategies, baseline comparability, and
// block-scoped multiplicity corrections.
package engine

import (
	"context"
	"fmt"
	"strings"

	"gocompare/domain/core"
	"gocompare/domain/dataset"
	"gocompare/domain/stats"
	"gocompare/domain/study"
	"gocompare/internal"
)

// Strategy defines the interface for a two-sample test.
type Strategy interface {
	Name() stats.StrategyName
	Description() string
	Run(ctx context.Context, a, b []float64, variable core.VariableKey, block core.BlockKey) (*stats.TestOutcome, error)
}

// Registry holds the available test strategies keyed by name.
type Registry struct {
	order      []stats.StrategyName
	strategies map[stats.StrategyName]Strategy
}

// NewRegistry creates a registry with every built-in strategy.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[stats.StrategyName]Strategy)}
	r.Register(NewWelchStrategy())
	r.Register(NewMannWhitneyStrategy())
	return r
}

// Register adds a strategy, replacing any previous one with the same name.
func (r *Registry) Register(s Strategy) {
	if _, exists := r.strategies[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.strategies[s.Name()] = s
}

// Get returns the strategy with the given name.
func (r *Registry) Get(name stats.StrategyName) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns all registered strategy names in registration order.
func (r *Registry) List() []stats.StrategyName {
	out := make([]stats.StrategyName, len(r.order))
	copy(out, r.order)
	return out
}

// SelectionPolicy picks the strategy for one variable from the two group
// normality verdicts. Policies are plain functions so callers can fix a
// strategy, defer to the verdicts, or supply their own rule.
type SelectionPolicy func(a, b stats.Verdict) stats.StrategyName

// FixedPolicy always selects the same strategy.
func FixedPolicy(name stats.StrategyName) SelectionPolicy {
	return func(a, b stats.Verdict) stats.StrategyName {
		return name
	}
}

// AutoPolicy selects the parametric test only when both groups pass the
// normality check, falling back to ranks otherwise.
func AutoPolicy() SelectionPolicy {
	return func(a, b stats.Verdict) stats.StrategyName {
		if a.Normal() && b.Normal() {
			return stats.StrategyWelch
		}
		return stats.StrategyMannWhitney
	}
}

// PolicyFor resolves a requested strategy name to a selection policy.
// Unknown names are a configuration error, caught before any data is read.
func PolicyFor(requested stats.StrategyName, registry *Registry) (SelectionPolicy, error) {
	if requested == stats.StrategyAuto {
		return AutoPolicy(), nil
	}
	if _, ok := registry.Get(requested); ok {
		return FixedPolicy(requested), nil
	}

	valid := []string{string(stats.StrategyAuto)}
	for _, name := range registry.List() {
		valid = append(valid, string(name))
	}
	return nil, fmt.Errorf("%w: %q (valid: %s)", core.ErrUnknownStrategy, requested, strings.Join(valid, ", "))
}

// Engine runs the per-block pipeline: descriptives and normality for each
// variable and group, one test per variable via the selection policy, then
// corrections over the block family.
type Engine struct {
	registry        *Registry
	policy          SelectionPolicy
	normalityAlpha  float64
	correctionAlpha float64
	logger          *internal.Logger
}

// NewEngine creates an engine for the requested strategy. The name is
// resolved immediately so a bad configuration fails before any analysis.
func NewEngine(requested stats.StrategyName, normalityAlpha, correctionAlpha float64, logger *internal.Logger) (*Engine, error) {
	registry := NewRegistry()
	policy, err := PolicyFor(requested, registry)
	if err != nil {
		return nil, err
	}
	return &Engine{
		registry:        registry,
		policy:          policy,
		normalityAlpha:  normalityAlpha,
		correctionAlpha: correctionAlpha,
		logger:          logger.WithPrefix("Engine"),
	}, nil
}

// Registry exposes the strategy registry, e.g. for listing in a CLI.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// RunBlock analyzes every variable in one block and corrects the resulting
// p-value family. Variables that cannot be analyzed are recorded as skip
// notices; degenerate data flows through as NaN rather than failing the
// block.
func (e *Engine) RunBlock(ctx context.Context, frame *dataset.Frame, design *study.Design, block study.VariableBlock) (stats.BlockResult, error) {
	result := stats.BlockResult{Block: block.Key}
	outcomes := []stats.TestOutcome{}

	for _, variable := range block.Variables {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !frame.HasColumn(variable.String()) {
			e.logger.Warn("block %s: variable %q not in dataset, skipping", block.Key, variable)
			result.Skipped = append(result.Skipped, stats.SkipNotice{
				Variable: variable,
				Block:    block.Key,
				Stage:    stats.StageBlock,
				Reason:   stats.SkipMissingVariable,
				Detail:   "column not found",
			})
			continue
		}

		sampleA, errA := frame.NumericSample(design.GroupColumn, design.GroupA, variable)
		sampleB, errB := frame.NumericSample(design.GroupColumn, design.GroupB, variable)
		if errA != nil || errB != nil {
			return result, fmt.Errorf("block %s: read %q: %w", block.Key, variable, firstError(errA, errB))
		}

		result.Descriptives = append(result.Descriptives,
			Summarize(design.GroupA, variable, sampleA),
			Summarize(design.GroupB, variable, sampleB))

		normA := CheckNormality(design.GroupA, variable, sampleA, e.normalityAlpha)
		normB := CheckNormality(design.GroupB, variable, sampleB, e.normalityAlpha)
		result.Normality = append(result.Normality, normA, normB)

		if len(sampleA) == 0 || len(sampleB) == 0 {
			e.logger.Warn("block %s: variable %q has an empty group, test skipped", block.Key, variable)
			result.Skipped = append(result.Skipped, stats.SkipNotice{
				Variable: variable,
				Block:    block.Key,
				Stage:    stats.StageTests,
				Reason:   stats.SkipEmptyGroup,
				Detail:   fmt.Sprintf("group sizes %d and %d", len(sampleA), len(sampleB)),
			})
			continue
		}

		name := e.policy(normA.Verdict, normB.Verdict)
		strategy, ok := e.registry.Get(name)
		if !ok {
			return result, fmt.Errorf("%w: policy selected %q", core.ErrUnknownStrategy, name)
		}

		outcome, err := strategy.Run(ctx, sampleA, sampleB, variable, block.Key)
		if err != nil {
			return result, err
		}
		outcomes = append(outcomes, *outcome)
	}

	result.Outcomes = CorrectByBlock(outcomes, e.correctionAlpha)
	e.logger.Info("block %s: tested %d of %d variables", block.Key, len(outcomes), len(block.Variables))
	return result, nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
