package excel

import (
	"math"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gocompare/domain/core"
	"gocompare/domain/stats"
)

// sampleReport covers both the fully-defined and the degenerate result shapes:
// the performance block has a clean Welch outcome, the timing block has a
// rank test whose statistics collapsed to NaN.
func sampleReport() *stats.AnalysisReport {
	welch := stats.MustNewTestOutcome("score", "performance", stats.StrategyWelch)
	welch.Statistic = -3.97
	welch.DF = 5.58
	welch.PValue = 0.0085
	welch.PMethod = stats.PMethodTDist
	welch.EffectSize = -2.8
	welch.EffectUnit = stats.EffectUnitCohenD
	welch.NA, welch.NB = 4, 4

	degenerate := stats.MustNewTestOutcome("latency", "timing", stats.StrategyMannWhitney)
	degenerate.Statistic = 2
	degenerate.EffectUnit = stats.EffectUnitRankBiserial
	degenerate.NA, degenerate.NB = 2, 2
	degenerate.Warn(stats.WarnDegenerateRanks)
	degenerate.Warn(stats.WarnTiesPresent)

	performance := stats.BlockResult{
		Block: "performance",
		Descriptives: []stats.Descriptives{
			{Group: "tactile", Variable: "score", N: 4, Mean: 2.5, SD: 1.5, Min: 1, Q1: 1.75, Median: 2.5, Q3: 3.25, Max: 4},
			{Group: "gesture", Variable: "score", N: 4, Mean: 6.75, SD: 1.5, Min: 5, Q1: 5.75, Median: 6.5, Q3: 7.5, Max: 9},
		},
		Normality: []stats.NormalityCheck{
			{Group: "tactile", Variable: "score", N: 4, W: 0.99, PValue: 0.97, Verdict: stats.VerdictNormal},
			{Group: "gesture", Variable: "score", N: 4, W: 0.95, PValue: 0.7, Verdict: stats.VerdictNormal},
		},
		Outcomes: []stats.CorrectedOutcome{
			{Raw: *welch, HolmP: 0.0085, HolmReject: true, BHQ: 0.0085, BHReject: true, FamilySize: 1},
		},
	}

	timing := stats.BlockResult{
		Block: "timing",
		Descriptives: []stats.Descriptives{
			{Group: "tactile", Variable: "latency", N: 2, Mean: 5, SD: 0, Min: 5, Q1: 5, Median: 5, Q3: 5, Max: 5},
			{Group: "gesture", Variable: "latency", N: 2, Mean: 5, SD: 0, Min: 5, Q1: 5, Median: 5, Q3: 5, Max: 5},
		},
		Normality: []stats.NormalityCheck{
			{Group: "tactile", Variable: "latency", N: 2, W: math.NaN(), PValue: math.NaN(), Verdict: stats.VerdictAssumedNormal, Warnings: []stats.WarningCode{stats.WarnSmallSample}},
			{Group: "gesture", Variable: "latency", N: 2, W: math.NaN(), PValue: math.NaN(), Verdict: stats.VerdictAssumedNormal, Warnings: []stats.WarningCode{stats.WarnSmallSample}},
		},
		Outcomes: []stats.CorrectedOutcome{
			stats.NewCorrectedOutcome(*degenerate),
		},
	}

	return &stats.AnalysisReport{
		RunID:           "0197bdb2-4f55-7000-8000-000000000001",
		GroupColumn:     "condition",
		GroupA:          "tactile",
		GroupB:          "gesture",
		Strategy:        stats.StrategyAuto,
		NormalityAlpha:  0.05,
		CorrectionAlpha: 0.05,
		DesignHash:      core.NewDesignHash([]byte("design")),
		FrameHash:       core.NewFrameHash([]byte("frame")),
		Baseline: []stats.BaselineOutcome{
			{Variable: "gender", Kind: stats.BaselineCategorical, Statistic: 1.25, DF: 1, PValue: 0.2636,
				PMethod: stats.PMethodChiSquare, EffectSize: 0.125, EffectUnit: stats.EffectUnitCramersV, N: 80},
			{Variable: "age", Kind: stats.BaselineContinuous, Statistic: 0.5, DF: 5.5, PValue: 0.64,
				PMethod: stats.PMethodTDist, EffectSize: math.NaN(), N: 8, NA: 4, NB: 4},
		},
		Blocks:     []stats.BlockResult{performance, timing},
		StartedAt:  core.Timestamp(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)),
		FinishedAt: core.Timestamp(time.Date(2025, 6, 1, 10, 0, 3, 0, time.UTC)),
	}
}

func cellValue(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func TestReportWriter_WritesAllSheets(t *testing.T) {
	dir := t.TempDir()
	writer := NewReportWriter(dir, WriterConfig{FileName: "report.xlsx"}, testLogger())

	path, err := writer.Write(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"baseline", "descriptives", "normality", "tests"}, f.GetSheetList())

	// Baseline sheet: one row per comparability check.
	assert.Equal(t, "variable", cellValue(t, f, "baseline", "A1"))
	assert.Equal(t, "gender", cellValue(t, f, "baseline", "A2"))
	assert.Equal(t, "categorical", cellValue(t, f, "baseline", "B2"))
	assert.Equal(t, "1.25", cellValue(t, f, "baseline", "C2"))
	assert.Equal(t, "chi_square", cellValue(t, f, "baseline", "F2"))
	assert.Equal(t, "0.125", cellValue(t, f, "baseline", "G2"))
	assert.Equal(t, "V", cellValue(t, f, "baseline", "H2"))
	assert.Equal(t, "80", cellValue(t, f, "baseline", "I2"))
	assert.Equal(t, "age", cellValue(t, f, "baseline", "A3"))
	assert.Equal(t, "", cellValue(t, f, "baseline", "G3"), "NaN effect size should leave the cell empty")

	// Descriptives sheet: four data rows, no separators.
	assert.Equal(t, "performance", cellValue(t, f, "descriptives", "A2"))
	assert.Equal(t, "tactile", cellValue(t, f, "descriptives", "C2"))
	assert.Equal(t, "2.5", cellValue(t, f, "descriptives", "E2"))
	assert.Equal(t, "1.75", cellValue(t, f, "descriptives", "H2"))
	assert.Equal(t, "gesture", cellValue(t, f, "descriptives", "C3"))
	assert.Equal(t, "timing", cellValue(t, f, "descriptives", "A4"))
	assert.Equal(t, "0", cellValue(t, f, "descriptives", "F4"), "a zero SD is a value, not a gap")

	// Normality sheet: assumed verdicts carry no W or p.
	assert.Equal(t, "0.99", cellValue(t, f, "normality", "E2"))
	assert.Equal(t, "normal", cellValue(t, f, "normality", "G2"))
	assert.Equal(t, "", cellValue(t, f, "normality", "E4"))
	assert.Equal(t, "assumed_normal", cellValue(t, f, "normality", "G4"))
	assert.Equal(t, "SMALL_SAMPLE", cellValue(t, f, "normality", "H4"))

	// Tests sheet: the Welch row is fully populated.
	assert.Equal(t, "performance", cellValue(t, f, "tests", "A2"))
	assert.Equal(t, "score", cellValue(t, f, "tests", "B2"))
	assert.Equal(t, "welch", cellValue(t, f, "tests", "C2"))
	assert.Equal(t, "-3.97", cellValue(t, f, "tests", "F2"))
	assert.Equal(t, "", cellValue(t, f, "tests", "G2"), "Welch defines no Z")
	assert.Equal(t, "5.58", cellValue(t, f, "tests", "H2"))
	assert.Equal(t, "0.0085", cellValue(t, f, "tests", "I2"))
	assert.Equal(t, "t_distribution", cellValue(t, f, "tests", "J2"))
	assert.Equal(t, "d", cellValue(t, f, "tests", "L2"))
	assert.Equal(t, "TRUE", cellValue(t, f, "tests", "N2"))
	assert.Equal(t, "1", cellValue(t, f, "tests", "Q2"))

	// The degenerate rank test renders empty statistics and FALSE decisions.
	assert.Equal(t, "latency", cellValue(t, f, "tests", "B3"))
	assert.Equal(t, "2", cellValue(t, f, "tests", "F3"))
	assert.Equal(t, "", cellValue(t, f, "tests", "I3"))
	assert.Equal(t, "undefined", cellValue(t, f, "tests", "J3"))
	assert.Equal(t, "", cellValue(t, f, "tests", "M3"))
	assert.Equal(t, "FALSE", cellValue(t, f, "tests", "N3"))
	assert.Equal(t, "0", cellValue(t, f, "tests", "Q3"))
	assert.Equal(t, "DEGENERATE_RANKS, TIES_PRESENT", cellValue(t, f, "tests", "R3"))
}

func TestReportWriter_BlankRowSeparatesBlocks(t *testing.T) {
	writer := NewReportWriter(t.TempDir(), WriterConfig{FileName: "report.xlsx", AddBlankRows: true}, testLogger())

	path, err := writer.Write(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// Descriptives: rows 2-3 performance, row 4 blank, rows 5-6 timing.
	assert.Equal(t, "performance", cellValue(t, f, "descriptives", "A3"))
	assert.Equal(t, "", cellValue(t, f, "descriptives", "A4"))
	assert.Equal(t, "timing", cellValue(t, f, "descriptives", "A5"))

	// Tests: row 2 performance, row 3 blank, row 4 timing.
	assert.Equal(t, "welch", cellValue(t, f, "tests", "C2"))
	assert.Equal(t, "", cellValue(t, f, "tests", "A3"))
	assert.Equal(t, "mannwhitney", cellValue(t, f, "tests", "C4"))

	// The baseline sheet is not block-scoped and never gains separators.
	assert.Equal(t, "gender", cellValue(t, f, "baseline", "A2"))
	assert.Equal(t, "age", cellValue(t, f, "baseline", "A3"))
}

func TestReportWriter_TimestampSuffix(t *testing.T) {
	writer := NewReportWriter(t.TempDir(), WriterConfig{FileName: "report.xlsx", ApplyTimestamp: true}, testLogger())

	path, err := writer.Write(sampleReport())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^report_\d{8}_\d{6}\.xlsx$`), filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "welch", cellValue(t, f, "tests", "C2"))
}

func TestReportWriter_DefaultFileName(t *testing.T) {
	writer := NewReportWriter(t.TempDir(), WriterConfig{}, testLogger())

	path, err := writer.Write(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "analysis_report.xlsx", filepath.Base(path))
}

func TestReportWriter_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")
	writer := NewReportWriter(dir, WriterConfig{FileName: "report.xlsx"}, testLogger())

	path, err := writer.Write(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"baseline", "descriptives", "normality", "tests"}, f.GetSheetList())
}
