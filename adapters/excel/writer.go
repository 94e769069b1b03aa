package excel

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gocompare/domain/stats"
	"gocompare/internal"
	apperrors "gocompare/internal/errors"
)

// WriterConfig controls the report workbook layout and naming.
type WriterConfig struct {
	FileName       string `json:"file_name"`
	AddBlankRows   bool   `json:"add_blank_rows"`  // separator row between blocks
	ApplyTimestamp bool   `json:"apply_timestamp"` // suffix the file name with the write time
}

// DefaultWriterConfig returns the standard report layout.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		FileName:     "analysis_report.xlsx",
		AddBlankRows: true,
	}
}

// Sheet names in pipeline order.
var reportSheets = []string{"baseline", "descriptives", "normality", "tests"}

// ReportWriter renders an analysis report as a workbook with one sheet per
// pipeline stage. Undefined statistics (NaN in the report) come out as empty
// cells rather than error text.
type ReportWriter struct {
	outputDir string
	cfg       WriterConfig
	logger    *internal.Logger
}

// NewReportWriter creates a writer that saves workbooks under outputDir.
func NewReportWriter(outputDir string, cfg WriterConfig, logger *internal.Logger) *ReportWriter {
	if cfg.FileName == "" {
		cfg.FileName = DefaultWriterConfig().FileName
	}
	return &ReportWriter{
		outputDir: outputDir,
		cfg:       cfg,
		logger:    logger.WithPrefix("ReportWriter"),
	}
}

// Write renders the report and returns the path of the saved workbook.
func (w *ReportWriter) Write(report *stats.AnalysisReport) (string, error) {
	payload := report.ToPayload()

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet instead of carrying an empty Sheet1.
	if err := f.SetSheetName("Sheet1", reportSheets[0]); err != nil {
		return "", apperrors.ReportWrite("failed to set up workbook sheets", err)
	}
	for _, sheet := range reportSheets[1:] {
		if _, err := f.NewSheet(sheet); err != nil {
			return "", apperrors.ReportWrite("failed to set up workbook sheets", err)
		}
	}

	if err := w.writeBaseline(f, payload); err != nil {
		return "", err
	}
	if err := w.writeDescriptives(f, payload); err != nil {
		return "", err
	}
	if err := w.writeNormality(f, payload); err != nil {
		return "", err
	}
	if err := w.writeTests(f, payload); err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", apperrors.ReportWrite("failed to create output directory", err)
	}
	path := w.outputPath(time.Now())
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.ReportWrite("failed to save report workbook", err)
	}

	w.logger.Info("report workbook written: %s", path)
	return path, nil
}

func (w *ReportWriter) writeBaseline(f *excelize.File, payload stats.ReportPayload) error {
	row := 1
	if err := setRow(f, "baseline", row, "variable", "kind", "statistic", "df",
		"p_value", "p_method", "effect_size", "effect_unit", "n", "n_a", "n_b", "warnings"); err != nil {
		return err
	}
	for _, b := range payload.Baseline {
		row++
		if err := setRow(f, "baseline", row, b.Variable, b.Kind, b.Statistic, b.DF,
			b.PValue, b.PMethod, b.EffectSize, b.EffectUnit, b.N, b.NA, b.NB, joinWarnings(b.Warnings)); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWriter) writeDescriptives(f *excelize.File, payload stats.ReportPayload) error {
	row := 1
	if err := setRow(f, "descriptives", row, "block", "variable", "group", "n",
		"mean", "sd", "min", "q1", "median", "q3", "max"); err != nil {
		return err
	}
	for i, block := range payload.Blocks {
		if w.cfg.AddBlankRows && i > 0 {
			row++
		}
		for _, d := range block.Descriptives {
			row++
			if err := setRow(f, "descriptives", row, block.Block, d.Variable, d.Group, d.N,
				d.Mean, d.SD, d.Min, d.Q1, d.Median, d.Q3, d.Max); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *ReportWriter) writeNormality(f *excelize.File, payload stats.ReportPayload) error {
	row := 1
	if err := setRow(f, "normality", row, "block", "variable", "group", "n",
		"w", "p_value", "verdict", "warnings"); err != nil {
		return err
	}
	for i, block := range payload.Blocks {
		if w.cfg.AddBlankRows && i > 0 {
			row++
		}
		for _, n := range block.Normality {
			row++
			if err := setRow(f, "normality", row, block.Block, n.Variable, n.Group, n.N,
				n.W, n.PValue, n.Verdict, joinWarnings(n.Warnings)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *ReportWriter) writeTests(f *excelize.File, payload stats.ReportPayload) error {
	row := 1
	if err := setRow(f, "tests", row, "block", "variable", "strategy", "n_a", "n_b",
		"statistic", "z", "df", "p_value", "p_method", "effect_size", "effect_unit",
		"holm_p", "holm_reject", "bh_q", "bh_reject", "family_size", "warnings"); err != nil {
		return err
	}
	for i, block := range payload.Blocks {
		if w.cfg.AddBlankRows && i > 0 {
			row++
		}
		for _, o := range block.Outcomes {
			row++
			if err := setRow(f, "tests", row, block.Block, o.Variable, o.Strategy, o.NA, o.NB,
				o.Statistic, o.Z, o.DF, o.PValue, o.PMethod, o.EffectSize, o.EffectUnit,
				o.HolmP, o.HolmReject, o.BHQ, o.BHReject, o.FamilySize, joinWarnings(o.Warnings)); err != nil {
				return err
			}
		}
	}
	return nil
}

// setRow writes one row of cells. Nil float pointers leave their cell empty,
// which is how NaN statistics render.
func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for i, v := range values {
		if p, ok := v.(*float64); ok {
			if p == nil {
				continue
			}
			v = *p
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return apperrors.ReportWrite("failed to address workbook cell", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return apperrors.ReportWrite("failed to write workbook cell", err)
		}
	}
	return nil
}

func (w *ReportWriter) outputPath(now time.Time) string {
	name := w.cfg.FileName
	if w.cfg.ApplyTimestamp {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + now.Format("_20060102_150405") + ext
	}
	return filepath.Join(w.outputDir, name)
}

func joinWarnings(warnings []stats.WarningCode) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = string(w)
	}
	return strings.Join(parts, ", ")
}
