// Package migration manages the database schema.
package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"gocompare/internal/errors"
)

// MigrationRunner handles database schema migrations.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner.
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version.
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all migrations in order. Every step is idempotent, so running
// against an already-migrated database is safe.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs indexes")
	}
	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			design_hash TEXT NOT NULL,
			frame_hash TEXT NOT NULL,
			strategy TEXT NOT NULL,
			group_a TEXT NOT NULL,
			group_b TEXT NOT NULL,
			tested INTEGER NOT NULL DEFAULT 0,
			holm_rejections INTEGER NOT NULL DEFAULT 0,
			bh_rejections INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			runtime_ms BIGINT NOT NULL DEFAULT 0,
			summary TEXT NOT NULL DEFAULT '',
			fingerprint TEXT NOT NULL,
			record JSONB NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs (fingerprint)
	`)
	return err
}
