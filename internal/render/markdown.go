// Package render turns analysis reports into human-readable digests: a
// markdown summary stored with each run, and its HTML form for the dashboard.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gocompare/domain/stats"
)

// RunSummary builds the markdown digest of a finished run. The digest is the
// skimmable view; exact values live in the workbook and the stored payload.
func RunSummary(report *stats.AnalysisReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", report.RunID)
	fmt.Fprintf(&b, "**%s** vs **%s**, split by `%s`. Strategy `%s`, normality alpha %g, correction alpha %g.\n\n",
		report.GroupA, report.GroupB, report.GroupColumn,
		report.Strategy, report.NormalityAlpha, report.CorrectionAlpha)

	writeBaselineSection(&b, report)
	for _, block := range report.Blocks {
		writeBlockSection(&b, block)
	}

	fmt.Fprintf(&b, "---\n\nTested %d variables: %d significant after Holm, %d discoveries after Benjamini-Hochberg, %d skipped. Runtime %d ms.\n\n",
		report.TestedCount(), report.HolmRejections(), report.BHRejections(), report.SkippedCount(), report.RuntimeMs())
	fmt.Fprintf(&b, "Design fingerprint `%s`, data fingerprint `%s`.\n",
		shortHash(report.DesignHash.String()), shortHash(report.FrameHash.String()))

	return b.String()
}

func writeBaselineSection(b *strings.Builder, report *stats.AnalysisReport) {
	if len(report.Baseline) == 0 && len(report.BaselineSkipped) == 0 {
		return
	}
	b.WriteString("## Baseline comparability\n\n")

	if len(report.Baseline) > 0 {
		b.WriteString("| Variable | Check | Statistic | p | Effect |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, bl := range report.Baseline {
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
				bl.Variable, bl.Kind, fmtStat(bl.Statistic), fmtP(bl.PValue), fmtEffect(bl.EffectSize, bl.EffectUnit))
		}
		b.WriteString("\n")
	}
	writeSkips(b, report.BaselineSkipped)
}

func writeBlockSection(b *strings.Builder, block stats.BlockResult) {
	fmt.Fprintf(b, "## Block: %s\n\n", block.Block)

	if len(block.Outcomes) > 0 {
		b.WriteString("| Variable | Test | p | Holm p | BH q | Effect | Decision |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, o := range block.Outcomes {
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				o.Raw.Variable, o.Raw.Strategy, fmtP(o.Raw.PValue),
				fmtP(o.HolmP), fmtP(o.BHQ),
				fmtEffect(o.Raw.EffectSize, o.Raw.EffectUnit), decision(o))
		}
		b.WriteString("\n")
	}
	writeSkips(b, block.Skipped)
}

func writeSkips(b *strings.Builder, skips []stats.SkipNotice) {
	for _, sk := range skips {
		fmt.Fprintf(b, "- skipped `%s`: %s", sk.Variable, sk.Reason)
		if sk.Detail != "" {
			fmt.Fprintf(b, " (%s)", sk.Detail)
		}
		b.WriteString("\n")
	}
	if len(skips) > 0 {
		b.WriteString("\n")
	}
}

func decision(o stats.CorrectedOutcome) string {
	switch {
	case o.HolmReject:
		return "significant"
	case o.BHReject:
		return "FDR discovery"
	case math.IsNaN(o.Raw.PValue):
		return "undefined"
	default:
		return "ns"
	}
}

func fmtStat(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func fmtP(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	if p < 0.001 {
		return "<0.001"
	}
	return strconv.FormatFloat(p, 'f', 3, 64)
}

func fmtEffect(v float64, unit string) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if unit == "" {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return fmt.Sprintf("%s=%.2f", unit, v)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// ToHTML renders a markdown digest as HTML for the dashboard.
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}
