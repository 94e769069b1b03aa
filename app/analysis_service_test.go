package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gocompare/domain/core"
	"gocompare/domain/dataset"
	"gocompare/domain/stats"
	"gocompare/internal"
	apperrors "gocompare/internal/errors"
	"gocompare/internal/testkit"
)

func quietLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func demoService(t *testing.T, kit *testkit.TestKit) *AnalysisService {
	t.Helper()
	frame, err := testkit.NewDemoDataGenerator(testkit.DefaultDemoConfig()).GenerateFrame()
	if err != nil {
		t.Fatalf("demo frame generation failed: %v", err)
	}
	return NewAnalysisService(testkit.NewStaticDatasetReader(frame), nil, kit.RunWriter(), quietLogger())
}

func TestAnalysisService_FullRun(t *testing.T) {
	kit := testkit.NewTestKit()
	service := demoService(t, kit)

	result, err := service.Run(context.Background(), AnalysisRequest{Design: testkit.DemoDesign()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	report := result.Report
	if len(report.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(report.Blocks))
	}
	for i, want := range []core.BlockKey{"performance", "timing", "experience"} {
		if report.Blocks[i].Block != want {
			t.Errorf("block %d: expected %q, got %q", i, want, report.Blocks[i].Block)
		}
	}
	if n := len(report.Blocks[0].Outcomes); n != 2 {
		t.Errorf("performance block: expected 2 outcomes, got %d", n)
	}
	for _, o := range report.Blocks[0].Outcomes {
		if o.FamilySize != 2 {
			t.Errorf("performance outcomes should correct in a family of 2, got %d", o.FamilySize)
		}
	}
	if n := len(report.Blocks[1].Outcomes); n != 1 {
		t.Errorf("timing block: expected 1 outcome, got %d", n)
	}

	// Two categorical checks plus the continuous age check.
	if len(report.Baseline) != 3 {
		t.Errorf("expected 3 baseline outcomes, got %d", len(report.Baseline))
	}

	record := result.Record
	if record.Tested != 4 {
		t.Errorf("expected 4 tested variables, got %d", record.Tested)
	}
	if record.Strategy != "auto" {
		t.Errorf("expected recorded strategy auto, got %q", record.Strategy)
	}
	if record.DesignHash == "" || record.FrameHash == "" {
		t.Error("record is missing input fingerprints")
	}
	if !strings.Contains(record.Summary, "# Run ") {
		t.Error("record summary should carry the markdown digest")
	}
	if result.ReportPath != "" {
		t.Errorf("no report writer wired, got path %q", result.ReportPath)
	}

	stored, err := kit.RunReader().GetRun(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("run was not persisted: %v", err)
	}
	if stored.Tested != record.Tested {
		t.Errorf("persisted record diverges: tested %d vs %d", stored.Tested, record.Tested)
	}
}

func TestAnalysisService_RunIDHandling(t *testing.T) {
	kit := testkit.NewTestKit()
	service := demoService(t, kit)
	ctx := context.Background()

	generated, err := service.Run(ctx, AnalysisRequest{Design: testkit.DemoDesign()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if generated.Report.RunID == "" {
		t.Error("expected a generated run ID")
	}

	pinned, err := service.Run(ctx, AnalysisRequest{Design: testkit.DemoDesign(), RunID: "run-pinned"})
	if err != nil {
		t.Fatalf("pinned run failed: %v", err)
	}
	if pinned.Report.RunID != "run-pinned" {
		t.Errorf("expected the provided run ID, got %q", pinned.Report.RunID)
	}
}

func TestAnalysisService_DeterministicFingerprint(t *testing.T) {
	ctx := context.Background()

	first, err := demoService(t, testkit.NewTestKit()).Run(ctx, AnalysisRequest{Design: testkit.DemoDesign()})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := demoService(t, testkit.NewTestKit()).Run(ctx, AnalysisRequest{Design: testkit.DemoDesign()})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if first.Record.Fingerprint.Fingerprint != second.Record.Fingerprint.Fingerprint {
		t.Error("identical design and data should produce identical run fingerprints")
	}
}

func TestAnalysisService_RejectsUnknownStrategy(t *testing.T) {
	design := testkit.DemoDesign()
	design.Strategy = "bootstrap"

	_, err := demoService(t, testkit.NewTestKit()).Run(context.Background(), AnalysisRequest{Design: design})
	if err == nil {
		t.Fatal("expected an unknown strategy to fail the run")
	}
	if !errors.Is(err, core.ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
	if code := apperrors.GetCode(err); code != apperrors.CodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %s", code)
	}
}

func TestAnalysisService_RejectsInvalidDesign(t *testing.T) {
	design := testkit.DemoDesign()
	design.Blocks = nil

	_, err := demoService(t, testkit.NewTestKit()).Run(context.Background(), AnalysisRequest{Design: design})
	if !errors.Is(err, core.ErrInvalidDesign) {
		t.Errorf("expected ErrInvalidDesign, got %v", err)
	}

	_, err = demoService(t, testkit.NewTestKit()).Run(context.Background(), AnalysisRequest{})
	if err == nil {
		t.Error("expected a nil design to fail")
	}
}

func TestAnalysisService_RejectsMissingGroupColumn(t *testing.T) {
	design := testkit.DemoDesign()
	design.GroupColumn = "treatment"

	_, err := demoService(t, testkit.NewTestKit()).Run(context.Background(), AnalysisRequest{Design: design})
	if err == nil {
		t.Fatal("expected a missing group column to fail the run")
	}
	if !strings.Contains(err.Error(), "treatment") {
		t.Errorf("error should name the missing column: %v", err)
	}
}

func TestAnalysisService_MissingLabelDegradesToSkips(t *testing.T) {
	design := testkit.DemoDesign()
	design.GroupA = "voice"

	result, err := demoService(t, testkit.NewTestKit()).Run(context.Background(), AnalysisRequest{Design: design})
	if err != nil {
		t.Fatalf("a label with no rows should not fail the run: %v", err)
	}
	if result.Record.Tested != 0 {
		t.Errorf("expected no tested variables, got %d", result.Record.Tested)
	}
	for _, block := range result.Report.Blocks {
		if len(block.Outcomes) != 0 {
			t.Errorf("block %s: expected no outcomes", block.Block)
		}
		for _, sk := range block.Skipped {
			if sk.Reason != stats.SkipEmptyGroup {
				t.Errorf("block %s: expected EMPTY_GROUP skips, got %s", block.Block, sk.Reason)
			}
		}
	}
}

type failingReader struct{}

func (failingReader) Read() (*dataset.Frame, error) {
	return nil, errors.New("disk on fire")
}

func TestAnalysisService_ReaderErrorPropagates(t *testing.T) {
	service := NewAnalysisService(failingReader{}, nil, nil, quietLogger())

	_, err := service.Run(context.Background(), AnalysisRequest{Design: testkit.DemoDesign()})
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("expected the reader error to surface, got %v", err)
	}
}

type capturingReportWriter struct {
	got  *stats.AnalysisReport
	path string
	err  error
}

func (w *capturingReportWriter) Write(report *stats.AnalysisReport) (string, error) {
	w.got = report
	return w.path, w.err
}

func TestAnalysisService_WritesReport(t *testing.T) {
	kit := testkit.NewTestKit()
	frame, err := testkit.NewDemoDataGenerator(testkit.DefaultDemoConfig()).GenerateFrame()
	if err != nil {
		t.Fatalf("demo frame generation failed: %v", err)
	}
	writer := &capturingReportWriter{path: "output/report.xlsx"}
	service := NewAnalysisService(testkit.NewStaticDatasetReader(frame), writer, kit.RunWriter(), quietLogger())

	result, err := service.Run(context.Background(), AnalysisRequest{Design: testkit.DemoDesign()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ReportPath != "output/report.xlsx" {
		t.Errorf("report path not threaded through: %q", result.ReportPath)
	}
	if writer.got == nil || writer.got.RunID != result.Report.RunID {
		t.Error("writer did not receive the finished report")
	}
}

func TestAnalysisService_ReportWriterErrorFailsRun(t *testing.T) {
	frame, err := testkit.NewDemoDataGenerator(testkit.DefaultDemoConfig()).GenerateFrame()
	if err != nil {
		t.Fatalf("demo frame generation failed: %v", err)
	}
	writer := &capturingReportWriter{err: errors.New("workbook locked")}
	service := NewAnalysisService(testkit.NewStaticDatasetReader(frame), writer, nil, quietLogger())

	_, err = service.Run(context.Background(), AnalysisRequest{Design: testkit.DemoDesign()})
	if err == nil || !strings.Contains(err.Error(), "workbook locked") {
		t.Errorf("expected the writer error to surface, got %v", err)
	}
}

func TestAnalysisService_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := demoService(t, testkit.NewTestKit()).Run(ctx, AnalysisRequest{Design: testkit.DemoDesign()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
