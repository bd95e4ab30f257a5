package postgres

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"strings"
	"time"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/domain/run"
	"leavingrate/internal/errors"
	"leavingrate/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ResultsRepository implements the results ports for PostgreSQL
type ResultsRepository struct {
	db *sqlx.DB
}

var (
	_ ports.ResultsSinkPort   = (*ResultsRepository)(nil)
	_ ports.ResultsReaderPort = (*ResultsRepository)(nil)
)

// NewResultsRepository creates a new PostgreSQL results repository
func NewResultsRepository(db *sqlx.DB) *ResultsRepository {
	return &ResultsRepository{db: db}
}

// Connect opens and pings a database through the lib/pq driver. sslMode is
// added to url unless url already names one.
func Connect(ctx context.Context, url, sslMode string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", withSSLMode(url, sslMode))
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to results database"))
	}
	return db, nil
}

// withSSLMode handles both URL (postgres://...) and keyword (host=...) forms
func withSSLMode(url, sslMode string) string {
	if sslMode == "" || strings.Contains(url, "sslmode=") {
		return url
	}
	if !strings.Contains(url, "://") {
		return strings.TrimSpace(url) + " sslmode=" + sslMode
	}
	if strings.Contains(url, "?") {
		return url + "&sslmode=" + sslMode
	}
	return url + "?sslmode=" + sslMode
}

type runRow struct {
	RunID             string    `db:"run_id"`
	Scenario          string    `db:"scenario"`
	InputDir          string    `db:"input_dir"`
	InputSetHash      string    `db:"input_set_hash"`
	ParametersHash    string    `db:"parameters_hash"`
	CodeVersion       string    `db:"code_version"`
	Fingerprint       string    `db:"fingerprint"`
	SessionsFound     int       `db:"sessions_found"`
	SessionsProcessed int       `db:"sessions_processed"`
	SessionsFailed    int       `db:"sessions_failed"`
	CreatedAt         time.Time `db:"created_at"`
}

type sessionRow struct {
	RunID       string `db:"run_id"`
	RecordType  string `db:"record_type"`
	Participant string `db:"participant"`
	Condition   string `db:"condition"`
	Session     string `db:"session"`
	Option      int    `db:"option"`
	metrics.Counts

	MeanRunLengthA sql.NullFloat64 `db:"d_a"`
	MeanRunLengthB sql.NullFloat64 `db:"d_b"`
	LeavingRateA   sql.NullFloat64 `db:"lambda_a"`
	LeavingRateB   sql.NullFloat64 `db:"lambda_b"`
	ChangeoverRate sql.NullFloat64 `db:"changeover_rate"`
	ObservedPropA  sql.NullFloat64 `db:"observed_prop_a"`
	PredictedPropA sql.NullFloat64 `db:"predicted_prop_a"`
}

type aggregateRow struct {
	RunID       string `db:"run_id"`
	Participant string `db:"participant"`
	Condition   string `db:"condition"`
	Sessions    int    `db:"sessions"`
	metrics.Counts

	MeanRunLengthA        sql.NullFloat64 `db:"d_a"`
	MeanRunLengthB        sql.NullFloat64 `db:"d_b"`
	LeavingRateA          sql.NullFloat64 `db:"lambda_a"`
	LeavingRateB          sql.NullFloat64 `db:"lambda_b"`
	ChangeoverRate        sql.NullFloat64 `db:"changeover_rate"`
	RelativeReinforcement sql.NullFloat64 `db:"relative_reinforcement"`
	ObservedPropA         sql.NullFloat64 `db:"observed_prop_a"`
	PredictedPropA        sql.NullFloat64 `db:"predicted_prop_a"`
	LogPreference         sql.NullFloat64 `db:"log_preference"`
	LogLambdaRatio        sql.NullFloat64 `db:"log_lambda_ratio"`
	SumLambdas            sql.NullFloat64 `db:"sum_lambdas"`
}

// SaveBatch stores the manifest, session rows and aggregate rows of one run
// in a single transaction
func (r *ResultsRepository) SaveBatch(ctx context.Context, batch ports.ResultsBatch) error {
	if batch.Manifest == nil {
		return errors.ValidationError("results batch has no manifest")
	}
	if err := batch.Manifest.Validate(); err != nil {
		return errors.WithCode(errors.CodeValidationError, err)
	}
	runID := batch.Manifest.RunID

	return r.inTx(ctx, "failed to save run "+runID.String(), func(tx *sqlx.Tx) error {
		if err := insertRun(ctx, tx, batch.Manifest); err != nil {
			return err
		}
		if err := insertSessions(ctx, tx, runID, batch.Sessions); err != nil {
			return err
		}
		return insertAggregates(ctx, tx, runID, batch.Aggregates)
	})
}

func insertRun(ctx context.Context, tx *sqlx.Tx, manifest *run.AnalysisManifest) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO analysis_runs (run_id, scenario, input_dir, input_set_hash, parameters_hash, code_version,
			fingerprint, sessions_found, sessions_processed, sessions_failed, created_at)
		VALUES (:run_id, :scenario, :input_dir, :input_set_hash, :parameters_hash, :code_version,
			:fingerprint, :sessions_found, :sessions_processed, :sessions_failed, :created_at)
	`, toRunRow(manifest))
	if err != nil {
		return errors.Wrapf(err, "failed to insert analysis run %s", manifest.RunID)
	}
	return nil
}

func insertSessions(ctx context.Context, tx *sqlx.Tx, runID core.RunID, sessions []metrics.SessionMetrics) error {
	if len(sessions) == 0 {
		return nil
	}
	rows := make([]sessionRow, len(sessions))
	for i, s := range sessions {
		rows[i] = toSessionRow(runID, s)
	}

	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO session_metrics (run_id, record_type, participant, condition, session, option,
			total_trials, n_a, n_b, r_a, r_b, runs_a, runs_b, num_changeovers,
			d_a, d_b, lambda_a, lambda_b, changeover_rate, observed_prop_a, predicted_prop_a)
		VALUES (:run_id, :record_type, :participant, :condition, :session, :option,
			:total_trials, :n_a, :n_b, :r_a, :r_b, :runs_a, :runs_b, :num_changeovers,
			:d_a, :d_b, :lambda_a, :lambda_b, :changeover_rate, :observed_prop_a, :predicted_prop_a)
	`, rows)
	if err != nil {
		return errors.Wrapf(err, "failed to insert %d session rows", len(rows))
	}
	return nil
}

func insertAggregates(ctx context.Context, tx *sqlx.Tx, runID core.RunID, aggregates []metrics.AggregateMetrics) error {
	if len(aggregates) == 0 {
		return nil
	}
	rows := make([]aggregateRow, len(aggregates))
	for i, a := range aggregates {
		rows[i] = toAggregateRow(runID, a)
	}

	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO aggregate_metrics (run_id, participant, condition, sessions,
			total_trials, n_a, n_b, r_a, r_b, runs_a, runs_b, num_changeovers,
			d_a, d_b, lambda_a, lambda_b, changeover_rate, relative_reinforcement,
			observed_prop_a, predicted_prop_a, log_preference, log_lambda_ratio, sum_lambdas)
		VALUES (:run_id, :participant, :condition, :sessions,
			:total_trials, :n_a, :n_b, :r_a, :r_b, :runs_a, :runs_b, :num_changeovers,
			:d_a, :d_b, :lambda_a, :lambda_b, :changeover_rate, :relative_reinforcement,
			:observed_prop_a, :predicted_prop_a, :log_preference, :log_lambda_ratio, :sum_lambdas)
	`, rows)
	if err != nil {
		return errors.Wrapf(err, "failed to insert %d aggregate rows", len(rows))
	}
	return nil
}

// GetRun retrieves a stored manifest
func (r *ResultsRepository) GetRun(ctx context.Context, runID core.RunID) (*run.AnalysisManifest, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT run_id, scenario, input_dir, input_set_hash, parameters_hash, code_version,
			fingerprint, sessions_found, sessions_processed, sessions_failed, created_at
		FROM analysis_runs
		WHERE run_id = $1
	`, runID.String())
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("analysis run " + runID.String())
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	return fromRunRow(row), nil
}

// ListAggregates returns the group metrics of a run ordered by key
func (r *ResultsRepository) ListAggregates(ctx context.Context, runID core.RunID) ([]metrics.AggregateMetrics, error) {
	var rows []aggregateRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, participant, condition, sessions,
			total_trials, n_a, n_b, r_a, r_b, runs_a, runs_b, num_changeovers,
			d_a, d_b, lambda_a, lambda_b, changeover_rate, relative_reinforcement,
			observed_prop_a, predicted_prop_a, log_preference, log_lambda_ratio, sum_lambdas
		FROM aggregate_metrics
		WHERE run_id = $1
	`, runID.String())
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}

	out := make([]metrics.AggregateMetrics, len(rows))
	for i, row := range rows {
		out[i] = fromAggregateRow(row)
	}
	// keys are text columns; order them numerically here
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}

func (r *ResultsRepository) inTx(ctx context.Context, message string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, message))
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, message))
	}
	if err := tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, message))
	}
	return nil
}

func toRunRow(m *run.AnalysisManifest) runRow {
	return runRow{
		RunID:             m.RunID.String(),
		Scenario:          string(m.Scenario),
		InputDir:          m.InputDir,
		InputSetHash:      m.InputSetHash.String(),
		ParametersHash:    m.ParametersHash.String(),
		CodeVersion:       m.CodeVersion,
		Fingerprint:       m.Fingerprint.Fingerprint.String(),
		SessionsFound:     m.SessionsFound,
		SessionsProcessed: m.SessionsProcessed,
		SessionsFailed:    m.SessionsFailed,
		CreatedAt:         m.CreatedAt.Time(),
	}
}

func fromRunRow(row runRow) *run.AnalysisManifest {
	scenario := run.Scenario(row.Scenario)
	inputs := core.InputSetHash(row.InputSetHash)
	params := core.ParametersHash(row.ParametersHash)
	return &run.AnalysisManifest{
		RunID:             core.RunID(row.RunID),
		Scenario:          scenario,
		InputDir:          row.InputDir,
		InputSetHash:      inputs,
		ParametersHash:    params,
		CodeVersion:       row.CodeVersion,
		Fingerprint:       run.NewRunFingerprint(scenario, inputs, params, row.CodeVersion),
		SessionsFound:     row.SessionsFound,
		SessionsProcessed: row.SessionsProcessed,
		SessionsFailed:    row.SessionsFailed,
		CreatedAt:         core.NewTimestamp(row.CreatedAt),
	}
}

func toSessionRow(runID core.RunID, m metrics.SessionMetrics) sessionRow {
	return sessionRow{
		RunID:          runID.String(),
		RecordType:     string(m.Key.RecordType),
		Participant:    m.Key.Participant.String(),
		Condition:      m.Key.Condition.String(),
		Session:        m.Key.Session.String(),
		Option:         m.Key.Option,
		Counts:         m.Counts,
		MeanRunLengthA: nullable(m.MeanRunLengthA),
		MeanRunLengthB: nullable(m.MeanRunLengthB),
		LeavingRateA:   nullable(m.LeavingRateA),
		LeavingRateB:   nullable(m.LeavingRateB),
		ChangeoverRate: nullable(m.ChangeoverRate),
		ObservedPropA:  nullable(m.ObservedPropA),
		PredictedPropA: nullable(m.PredictedPropA),
	}
}

func toAggregateRow(runID core.RunID, a metrics.AggregateMetrics) aggregateRow {
	return aggregateRow{
		RunID:                 runID.String(),
		Participant:           a.Key.Participant.String(),
		Condition:             a.Key.Condition.String(),
		Sessions:              a.Sessions,
		Counts:                a.Counts,
		MeanRunLengthA:        nullable(a.MeanRunLengthA),
		MeanRunLengthB:        nullable(a.MeanRunLengthB),
		LeavingRateA:          nullable(a.LeavingRateA),
		LeavingRateB:          nullable(a.LeavingRateB),
		ChangeoverRate:        nullable(a.ChangeoverRate),
		RelativeReinforcement: nullable(a.RelativeReinforcement),
		ObservedPropA:         nullable(a.ObservedPropA),
		PredictedPropA:        nullable(a.PredictedPropA),
		LogPreference:         nullable(a.LogPreference),
		LogLambdaRatio:        nullable(a.LogLambdaRatio),
		SumLambdas:            nullable(a.SumLambdas),
	}
}

// fromAggregateRow rebuilds the aggregate from its stored counts; the
// derived columns are recomputed rather than trusted
func fromAggregateRow(row aggregateRow) metrics.AggregateMetrics {
	key := metrics.GroupKey{Participant: core.ParticipantID(row.Participant), Condition: core.ConditionID(row.Condition)}
	return metrics.NewAggregateMetrics(key, row.Counts, row.Sessions)
}

// nullable stores NaN and infinities as SQL NULL
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
