package migration

import (
	"context"
	"fmt"

	"leavingrate/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles the results schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.1.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name string
	sql  string
}

// Run executes all migrations in order; every statement is idempotent
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range steps() {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, fmt.Sprintf("failed to %s", s.name)))
		}
	}
	return nil
}

// Statements returns the DDL in execution order
func (r *MigrationRunner) Statements() []string {
	out := make([]string, 0, len(steps()))
	for _, s := range steps() {
		out = append(out, s.sql)
	}
	return out
}

func steps() []step {
	return []step{
		{"create analysis_runs table", createAnalysisRunsTable},
		{"create session_metrics table", createSessionMetricsTable},
		{"create aggregate_metrics table", createAggregateMetricsTable},
		{"create indexes", createIndexes},
	}
}

const createAnalysisRunsTable = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    run_id TEXT PRIMARY KEY,
    scenario TEXT NOT NULL,
    input_dir TEXT NOT NULL,
    input_set_hash TEXT NOT NULL,
    parameters_hash TEXT NOT NULL,
    code_version TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    sessions_found INTEGER NOT NULL DEFAULT 0,
    sessions_processed INTEGER NOT NULL DEFAULT 0,
    sessions_failed INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createSessionMetricsTable = `
CREATE TABLE IF NOT EXISTS session_metrics (
    run_id TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
    record_type TEXT NOT NULL,
    participant TEXT NOT NULL,
    condition TEXT NOT NULL,
    session TEXT NOT NULL,
    option INTEGER NOT NULL,
    total_trials INTEGER NOT NULL,
    n_a INTEGER NOT NULL,
    n_b INTEGER NOT NULL,
    r_a INTEGER NOT NULL,
    r_b INTEGER NOT NULL,
    runs_a INTEGER NOT NULL,
    runs_b INTEGER NOT NULL,
    num_changeovers INTEGER NOT NULL,
    d_a DOUBLE PRECISION,
    d_b DOUBLE PRECISION,
    lambda_a DOUBLE PRECISION,
    lambda_b DOUBLE PRECISION,
    changeover_rate DOUBLE PRECISION,
    observed_prop_a DOUBLE PRECISION,
    predicted_prop_a DOUBLE PRECISION,
    PRIMARY KEY (run_id, record_type, participant, condition, session, option)
)`

const createAggregateMetricsTable = `
CREATE TABLE IF NOT EXISTS aggregate_metrics (
    run_id TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
    participant TEXT NOT NULL,
    condition TEXT NOT NULL,
    sessions INTEGER NOT NULL,
    total_trials INTEGER NOT NULL,
    n_a INTEGER NOT NULL,
    n_b INTEGER NOT NULL,
    r_a INTEGER NOT NULL,
    r_b INTEGER NOT NULL,
    runs_a INTEGER NOT NULL,
    runs_b INTEGER NOT NULL,
    num_changeovers INTEGER NOT NULL,
    d_a DOUBLE PRECISION,
    d_b DOUBLE PRECISION,
    lambda_a DOUBLE PRECISION,
    lambda_b DOUBLE PRECISION,
    changeover_rate DOUBLE PRECISION,
    relative_reinforcement DOUBLE PRECISION,
    observed_prop_a DOUBLE PRECISION,
    predicted_prop_a DOUBLE PRECISION,
    log_preference DOUBLE PRECISION,
    log_lambda_ratio DOUBLE PRECISION,
    sum_lambdas DOUBLE PRECISION,
    PRIMARY KEY (run_id, participant, condition)
)`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_analysis_runs_fingerprint ON analysis_runs(fingerprint);
CREATE INDEX IF NOT EXISTS idx_session_metrics_group ON session_metrics(participant, condition);
CREATE INDEX IF NOT EXISTS idx_aggregate_metrics_group ON aggregate_metrics(participant, condition)`
