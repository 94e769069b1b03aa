// Package run records completed analysis runs so results stay traceable to
// the exact design, dataset, and code version that produced them.
package run

import (
	"crypto/sha256"
	"fmt"

	"gocompare/domain/core"
	"gocompare/domain/stats"
)

// Fingerprint ensures deterministic replay: two runs with the same design,
// dataset, strategy, and code version share a fingerprint.
type Fingerprint struct {
	DesignHash  core.DesignHash `json:"design_hash"`
	FrameHash   core.FrameHash  `json:"frame_hash"`
	Strategy    string          `json:"strategy"`
	CodeVersion string          `json:"code_version"`
	Fingerprint core.Hash       `json:"fingerprint"` // Hash of all above
}

// NewFingerprint creates a fingerprint from determinism parameters.
func NewFingerprint(designHash core.DesignHash, frameHash core.FrameHash, strategy, codeVersion string) Fingerprint {
	data := fmt.Sprintf("design:%s|frame:%s|strategy:%s|code:%s",
		designHash, frameHash, strategy, codeVersion)
	hash := sha256.Sum256([]byte(data))

	return Fingerprint{
		DesignHash:  designHash,
		FrameHash:   frameHash,
		Strategy:    strategy,
		CodeVersion: codeVersion,
		Fingerprint: core.Hash(fmt.Sprintf("%x", hash)),
	}
}

// Record is the persisted trace of one completed analysis run. The full
// report travels with it as a JSON-safe payload; the scalar columns exist so
// runs can be listed and compared without unpacking the payload.
type Record struct {
	ID        core.RunID     `json:"id"`
	CreatedAt core.Timestamp `json:"created_at"`

	DesignHash core.DesignHash `json:"design_hash"`
	FrameHash  core.FrameHash  `json:"frame_hash"`
	Strategy   string          `json:"strategy"`
	GroupA     string          `json:"group_a"`
	GroupB     string          `json:"group_b"`

	Tested         int   `json:"tested"`
	HolmRejections int   `json:"holm_rejections"`
	BHRejections   int   `json:"bh_rejections"`
	Skipped        int   `json:"skipped"`
	RuntimeMs      int64 `json:"runtime_ms"`

	Summary     string              `json:"summary"` // markdown digest of the run
	Fingerprint Fingerprint         `json:"fingerprint"`
	Report      stats.ReportPayload `json:"report"`
}

// NewRecord assembles a record from a finished report.
func NewRecord(report *stats.AnalysisReport, summary, codeVersion string) *Record {
	return &Record{
		ID:             report.RunID,
		CreatedAt:      core.Now(),
		DesignHash:     report.DesignHash,
		FrameHash:      report.FrameHash,
		Strategy:       string(report.Strategy),
		GroupA:         report.GroupA,
		GroupB:         report.GroupB,
		Tested:         report.TestedCount(),
		HolmRejections: report.HolmRejections(),
		BHRejections:   report.BHRejections(),
		Skipped:        report.SkippedCount(),
		RuntimeMs:      report.RuntimeMs(),
		Summary:        summary,
		Fingerprint:    NewFingerprint(report.DesignHash, report.FrameHash, string(report.Strategy), codeVersion),
		Report:         report.ToPayload(),
	}
}

// Validate checks if the record is complete.
func (r *Record) Validate() error {
	if core.ID(r.ID).IsEmpty() {
		return core.NewValidationError("run_record", "id cannot be empty")
	}
	if r.DesignHash == "" {
		return core.NewValidationError("run_record", "design_hash cannot be empty")
	}
	if r.FrameHash == "" {
		return core.NewValidationError("run_record", "frame_hash cannot be empty")
	}
	if r.Strategy == "" {
		return core.NewValidationError("run_record", "strategy cannot be empty")
	}
	return nil
}
