package ports

import "gocompare/domain/stats"

// ReportWriter renders a finished analysis report to a reviewable artifact,
// e.g. the result workbook. Write returns the path of the artifact it
// produced so callers can log and surface it.
type ReportWriter interface {
	Write(report *stats.AnalysisReport) (string, error)
}
