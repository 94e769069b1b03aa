package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"gocompare/adapters/stats/engine"
	"gocompare/domain/core"
	"gocompare/domain/dataset"
	"gocompare/domain/run"
	"gocompare/domain/stats"
	"gocompare/domain/study"
	"gocompare/internal"
	"gocompare/internal/config"
	apperrors "gocompare/internal/errors"
	"gocompare/internal/render"
	"gocompare/ports"
)

// AnalysisService orchestrates one complete run: load the dataset, check
// baseline comparability, test every block, then persist and report the
// results. Configuration problems fail before any statistics run; data
// problems inside a block degrade to skip notices instead.
type AnalysisService struct {
	reader   ports.DatasetReader
	reports  ports.ReportWriter // optional, nil skips the workbook
	runs     ports.RunWriter    // optional, nil skips persistence
	baseline *engine.BaselineAnalyzer
	logger   *internal.Logger
}

// NewAnalysisService creates the service. reports and runs may be nil.
func NewAnalysisService(reader ports.DatasetReader, reports ports.ReportWriter, runs ports.RunWriter, logger *internal.Logger) *AnalysisService {
	return &AnalysisService{
		reader:   reader,
		reports:  reports,
		runs:     runs,
		baseline: engine.NewBaselineAnalyzer(logger),
		logger:   logger.WithPrefix("AnalysisService"),
	}
}

// AnalysisRequest defines the inputs for one run.
type AnalysisRequest struct {
	Design *study.Design
	RunID  core.RunID // optional, generated when empty
}

// AnalysisResult is the complete output of one run.
type AnalysisResult struct {
	Record     *run.Record
	Report     *stats.AnalysisReport
	ReportPath string // empty when no report writer is wired
}

// Run executes the pipeline for one design against the configured dataset.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	startedAt := core.Now()

	if req.Design == nil {
		return nil, apperrors.ConfigInvalid("analysis request has no design")
	}
	// Work on a shallow copy: callers may share one design value across
	// concurrent runs, and ApplyDefaults must not write into it.
	design := *req.Design
	design.ApplyDefaults()
	if err := design.Validate(); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}

	// Resolving the strategy here makes an unknown name fail the run before
	// any data is read.
	eng, err := engine.NewEngine(stats.StrategyName(design.Strategy), design.NormalityAlpha, design.CorrectionAlpha, s.logger)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}

	frame, err := s.reader.Read()
	if err != nil {
		return nil, err
	}
	if !frame.HasColumn(design.GroupColumn) {
		return nil, apperrors.ConfigInvalid(fmt.Sprintf("group column %q not present in the dataset", design.GroupColumn))
	}
	s.warnMissingLabels(frame, &design)

	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}
	s.logger.Info("run %s: %s vs %s across %d blocks", runID, design.GroupA, design.GroupB, len(design.Blocks))

	baselineOutcomes, baselineSkips := s.baseline.Run(ctx, frame, &design)

	// Blocks are independent correction families, so they run concurrently.
	// Results land at their design index regardless of completion order.
	blocks := make([]stats.BlockResult, len(design.Blocks))
	g, gctx := errgroup.WithContext(ctx)
	for i, block := range design.Blocks {
		g.Go(func() error {
			result, err := eng.RunBlock(gctx, frame, &design, block)
			if err != nil {
				return err
			}
			blocks[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &stats.AnalysisReport{
		RunID:           runID,
		GroupColumn:     design.GroupColumn,
		GroupA:          design.GroupA,
		GroupB:          design.GroupB,
		Strategy:        stats.StrategyName(design.Strategy),
		NormalityAlpha:  design.NormalityAlpha,
		CorrectionAlpha: design.CorrectionAlpha,
		DesignHash:      design.Fingerprint(),
		FrameHash:       frame.Fingerprint(),
		Baseline:        baselineOutcomes,
		BaselineSkipped: baselineSkips,
		Blocks:          blocks,
		StartedAt:       startedAt,
		FinishedAt:      core.Now(),
	}

	record := run.NewRecord(report, render.RunSummary(report), config.Version)
	result := &AnalysisResult{Record: record, Report: report}

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, record); err != nil {
			return nil, apperrors.Wrap(err, "failed to persist run record")
		}
	}
	if s.reports != nil {
		path, err := s.reports.Write(report)
		if err != nil {
			return nil, err
		}
		result.ReportPath = path
	}

	s.logger.Info("run %s: tested %d, Holm %d, BH %d, skipped %d in %dms",
		runID, record.Tested, record.HolmRejections, record.BHRejections, record.Skipped, record.RuntimeMs)
	return result, nil
}

// warnMissingLabels flags a group label with no rows. The run still proceeds:
// every variable degrades to an empty-group skip, which keeps a mistyped
// label visible in the report rather than silently fatal.
func (s *AnalysisService) warnMissingLabels(frame *dataset.Frame, design *study.Design) {
	labels, err := frame.GroupLabels(design.GroupColumn)
	if err != nil {
		return
	}
	present := make(map[string]bool, len(labels))
	for _, l := range labels {
		present[l] = true
	}
	for _, want := range []string{design.GroupA, design.GroupB} {
		if !present[want] {
			s.logger.Warn("group %q has no rows in column %q", want, design.GroupColumn)
		}
	}
}
