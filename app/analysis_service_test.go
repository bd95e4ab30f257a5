package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"leavingrate/adapters/excel"
	"leavingrate/domain/metrics"
	"leavingrate/internal"
	"leavingrate/internal/dataset"
	"leavingrate/internal/errors"
	"leavingrate/internal/testkit"
	"leavingrate/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, sink *testkit.InMemoryResultsSink) (*AnalysisService, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "results")
	config := DefaultServiceConfig()
	config.Workers = 3
	config.Storage = &dataset.StorageConfig{BasePath: out}
	config.Report.HTML = true

	logger := internal.NewWriterLogger(internal.LogLevelError, os.Stderr)
	var service *AnalysisService
	if sink != nil {
		service = NewAnalysisService(excel.NewDataReader(), sink, config, logger)
	} else {
		service = NewAnalysisService(excel.NewDataReader(), nil, config, logger)
	}
	return service, out
}

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	config := testkit.DefaultSessionConfig()
	config.Trials = 60
	_, err := testkit.NewTestKit().WithConfig(config).WriteDataset(dir, 2, 1, 2)
	require.NoError(t, err)

	broken := map[string]string{
		"F__P9_C1_S1_O1.txt": "TRIAL_INDEX\tACCURACY\n1\t1\n",
		"F__P8_C1_S1_O1.txt": "TRIAL_INDEX\tLADO\tACCURACY\n1\t3\t1\n",
		"notes.txt":          "ignored",
	}
	for name, content := range broken {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestReplicate(t *testing.T) {
	sink := testkit.NewInMemoryResultsSink()
	service, out := newTestService(t, sink)
	input := writeInputs(t)

	result, err := service.Replicate(context.Background(), input)
	require.NoError(t, err)

	m := result.Manifest
	assert.Equal(t, 6, m.SessionsFound)
	assert.Equal(t, 4, m.SessionsProcessed)
	assert.Equal(t, 2, m.SessionsFailed)

	codes := map[string]string{}
	for _, f := range result.Failures() {
		codes[filepath.Base(f.Path)] = f.Code
	}
	assert.Equal(t, errors.CodeMissingColumns, codes["F__P9_C1_S1_O1.txt"])
	assert.Equal(t, errors.CodeNoValidRows, codes["F__P8_C1_S1_O1.txt"])

	require.Len(t, result.Aggregates, 2)
	var total metrics.Counts
	for _, s := range result.SessionMetrics() {
		total = total.Add(s.Counts)
	}
	assert.Equal(t, total, result.Aggregates[0].Counts.Add(result.Aggregates[1].Counts))
	assert.Equal(t, 120, result.Aggregates[0].Counts.TotalTrials)
	require.Len(t, result.Fits, 3)
	assert.Len(t, result.Describe, 8)

	for _, name := range []string{"sessions.csv", "aggregates.csv", "fits.csv", "replication.xlsx", "replication.md", "replication.html"} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	stored, err := sink.GetRun(context.Background(), m.RunID)
	require.NoError(t, err)
	assert.Equal(t, m.Fingerprint, stored.Fingerprint)
	assert.Len(t, sink.Sessions(m.RunID), 4)
	aggregates, err := sink.ListAggregates(context.Background(), m.RunID)
	require.NoError(t, err)
	assert.Len(t, aggregates, 2)
}

func TestReplicate_SummaryReadsBack(t *testing.T) {
	service, out := newTestService(t, nil)
	input := writeInputs(t)

	result, err := service.Replicate(context.Background(), input)
	require.NoError(t, err)

	table, err := excel.NewDataReader().ReadSession(context.Background(), filepath.Join(out, "aggregates.csv"), []string{"participant", "lambda_a"})
	require.NoError(t, err)
	participants, _ := table.Column("participant")
	assert.Equal(t, []string{"1", "2"}, participants)
	assert.Len(t, result.Outputs, 7)
}

func TestReplicate_NoInput(t *testing.T) {
	service, out := newTestService(t, nil)

	result, err := service.Replicate(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Equal(t, "no session files found", result.String())
	assert.NoDirExists(t, out)

	_, err = service.Replicate(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSessions_WritesReports(t *testing.T) {
	service, out := newTestService(t, nil)
	input := writeInputs(t)

	result, err := service.Sessions(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Manifest.SessionsProcessed)

	for _, name := range []string{
		"report_P1_C1_S1.md", "report_P2_C1_S2.md", "report_P1_C1_S1.html",
		"session_summary.csv", "exit_probability.csv", "sessions.xlsx", "session_summary.md",
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.NoFileExists(t, filepath.Join(out, "report_P9_C1_S1.md"))
}

func convertSession(t *testing.T, src, dst string) {
	t.Helper()
	raw, err := excel.NewDataReader().ReadSession(context.Background(), src, nil)
	require.NoError(t, err)
	table := excel.Table{Name: "session", Headers: raw.Headers}
	for _, row := range raw.Rows {
		cells := make([]interface{}, len(raw.Headers))
		for i, h := range raw.Headers {
			cells[i] = row[h]
		}
		table.AddRow(cells...)
	}

	f, err := os.Create(dst)
	require.NoError(t, err)
	defer f.Close()
	if filepath.Ext(dst) == ".xlsx" {
		require.NoError(t, excel.WriteWorkbook(f, []excel.Table{table}))
	} else {
		require.NoError(t, excel.WriteCSV(f, table))
	}
}

func TestSessions_MixedFormatsAndRepeatedNames(t *testing.T) {
	service, out := newTestService(t, nil)
	input := t.TempDir()
	kit := testkit.NewTestKit()
	for _, sub := range []string{"day1", "day2"} {
		_, err := kit.WriteDataset(filepath.Join(input, sub), 1, 1, 1)
		require.NoError(t, err)
	}
	src := filepath.Join(input, "day1", "F__P1_C1_S1_O1.txt")
	convertSession(t, src, filepath.Join(input, "F__P3_C1_S1_O1.csv"))
	convertSession(t, src, filepath.Join(input, "F__P4_C1_S1_O1.xlsx"))

	result, err := service.Sessions(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Manifest.SessionsProcessed)
	assert.Equal(t, 0, result.Manifest.SessionsFailed)

	sessions := result.SessionMetrics()
	require.Len(t, sessions, 4)
	// converted copies carry the same trials as their source
	assert.Equal(t, sessions[0].Counts, sessions[2].Counts)
	assert.Equal(t, sessions[0].Counts, sessions[3].Counts)

	for _, name := range []string{"report_P1_C1_S1.md", "report_P1_C1_S1_2.md", "report_P3_C1_S1.md", "report_P4_C1_S1.md"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
}

func TestMatching(t *testing.T) {
	service, out := newTestService(t, nil)
	input := writeInputs(t)

	result, err := service.Matching(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Manifest.SessionsFound)
	assert.Equal(t, 2, result.Manifest.SessionsFailed)
	assert.Len(t, result.SessionMetrics(), 4)
	assert.Len(t, result.VisitMetrics(), 4)
	assert.Len(t, result.Pairs, 4)
	assert.Len(t, result.VisitAggregates, 2)
	require.Len(t, result.Fits, 2)
	assert.Equal(t, "Saccades", result.Fits[0].Name)

	for _, v := range result.VisitMetrics() {
		assert.Greater(t, v.Counts.SecondsA+v.Counts.SecondsB, 0.0)
	}
	for _, name := range []string{"saccade_sessions.csv", "fixation_visits.csv", "scenario_comparison.csv", "matching.xlsx", "matching.md"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
}

type failingSink struct {
	calls int
}

func (s *failingSink) SaveBatch(ctx context.Context, batch ports.ResultsBatch) error {
	s.calls++
	return errors.WithCode(errors.CodeDatabaseError, assert.AnError)
}

func TestReplicate_ExportFailureIsReported(t *testing.T) {
	sink := &failingSink{}
	out := filepath.Join(t.TempDir(), "results")
	config := DefaultServiceConfig()
	config.Storage = &dataset.StorageConfig{BasePath: out}
	service := NewAnalysisService(excel.NewDataReader(), sink, config, internal.NewWriterLogger(internal.LogLevelError, os.Stderr))

	_, err := service.Replicate(context.Background(), writeInputs(t))
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.Equal(t, 1, sink.calls)
	// local results are written before the export
	assert.FileExists(t, filepath.Join(out, "aggregates.csv"))
}

func TestAnalysisService_Cancelled(t *testing.T) {
	service, _ := newTestService(t, nil)
	input := writeInputs(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := service.Replicate(ctx, input)
	assert.ErrorIs(t, err, context.Canceled)
}
