package ports

import (
	"context"

	"gocompare/domain/core"
	"gocompare/domain/run"
)

// RunWriter provides append-only persistence for completed runs.
// This is the only write path - a rerun appends a new record, never updates
// an old one, so the stored history stays a faithful audit trail.
type RunWriter interface {
	SaveRun(ctx context.Context, record *run.Record) error
}

// RunReader provides read-only access to stored runs for the API and UI.
type RunReader interface {
	GetRun(ctx context.Context, id core.RunID) (*run.Record, error)
	ListRuns(ctx context.Context, filters RunFilters) ([]RunSummary, error)
}

// RunRepository combines both sides for storage adapters.
type RunRepository interface {
	RunWriter
	RunReader
}

// RunFilters for querying runs
type RunFilters struct {
	Limit  int
	Offset int
}

// RunSummary is the list-view read model: one row per stored run, without
// the report payload.
type RunSummary struct {
	ID             core.RunID     `json:"id"`
	CreatedAt      core.Timestamp `json:"created_at"`
	Strategy       string         `json:"strategy"`
	GroupA         string         `json:"group_a"`
	GroupB         string         `json:"group_b"`
	Tested         int            `json:"tested"`
	HolmRejections int            `json:"holm_rejections"`
	BHRejections   int            `json:"bh_rejections"`
	Skipped        int            `json:"skipped"`
	RuntimeMs      int64          `json:"runtime_ms"`
}

// Summarize projects a full record onto its list row.
func Summarize(record *run.Record) RunSummary {
	return RunSummary{
		ID:             record.ID,
		CreatedAt:      record.CreatedAt,
		Strategy:       record.Strategy,
		GroupA:         record.GroupA,
		GroupB:         record.GroupB,
		Tested:         record.Tested,
		HolmRejections: record.HolmRejections,
		BHRejections:   record.BHRejections,
		Skipped:        record.Skipped,
		RuntimeMs:      record.RuntimeMs,
	}
}
