// Package postgres persists completed runs. Scalar columns carry what the
// list views need; the full record travels as a JSONB blob so a stored run
// can be reopened without recomputing anything.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gocompare/domain/core"
	"gocompare/domain/run"
	"gocompare/ports"
)

const defaultListLimit = 50

// runRepository implements ports.RunRepository on PostgreSQL.
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a run repository backed by db.
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// SaveRun inserts a record. The table has no update path; a repeated ID
// fails on the primary key, which keeps stored history append-only.
func (r *runRepository) SaveRun(ctx context.Context, record *run.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	query := `INSERT INTO runs (
		id, created_at, design_hash, frame_hash, strategy, group_a, group_b,
		tested, holm_rejections, bh_rejections, skipped, runtime_ms,
		summary, fingerprint, record
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	)`

	_, err = r.db.ExecContext(ctx, query,
		record.ID, time.Time(record.CreatedAt), record.DesignHash, record.FrameHash,
		record.Strategy, record.GroupA, record.GroupB,
		record.Tested, record.HolmRejections, record.BHRejections, record.Skipped, record.RuntimeMs,
		record.Summary, record.Fingerprint.Fingerprint, recordJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.ID, err)
	}
	return nil
}

// GetRun loads one full record by ID.
func (r *runRepository) GetRun(ctx context.Context, id core.RunID) (*run.Record, error) {
	var recordJSON []byte
	err := r.db.QueryRowContext(ctx, `SELECT record FROM runs WHERE id = $1`, id).Scan(&recordJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	var record run.Record
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}
	return &record, nil
}

// ListRuns returns summaries newest first, reading only the scalar columns.
func (r *runRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, created_at, strategy, group_a, group_b,
		tested, holm_rejections, bh_rejections, skipped, runtime_ms
	FROM runs
	ORDER BY created_at DESC, id DESC
	LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]ports.RunSummary, 0, limit)
	for rows.Next() {
		var s ports.RunSummary
		var createdAt time.Time
		if err := rows.Scan(&s.ID, &createdAt, &s.Strategy, &s.GroupA, &s.GroupB,
			&s.Tested, &s.HolmRejections, &s.BHRejections, &s.Skipped, &s.RuntimeMs); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		s.CreatedAt = core.Timestamp(createdAt)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
