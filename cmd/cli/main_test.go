package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/domain/run"
	"leavingrate/internal/errors"
	"leavingrate/internal/report"
	"leavingrate/internal/testkit"
	"leavingrate/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestSimulateThenReplicate(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("REPORT_HTML", "")
	t.Setenv("WORKERS", "")
	input := filepath.Join(t.TempDir(), "synthetic")
	output := filepath.Join(t.TempDir(), "results")

	out := execute(t, "simulate", input, "--participants", "1", "--conditions", "1", "--sessions", "2", "--trials", "40")
	assert.Contains(t, out, "Wrote 4 session files")
	assert.Contains(t, out, "expected proportion on side 1: 0.667")

	out = execute(t, "replicate", input, "--output", output, "--workers", "2")
	assert.Contains(t, out, "2 sessions found, 2 processed, 0 failed")
	assert.FileExists(t, filepath.Join(output, "aggregates.csv"))
	assert.NoFileExists(t, filepath.Join(output, "replication.html"))

	out = execute(t, "matching", input, "--output", output)
	assert.Contains(t, out, "4 sessions found, 4 processed, 0 failed")
	assert.FileExists(t, filepath.Join(output, "scenario_comparison.csv"))
}

func TestReplicate_EmptyInput(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	out := execute(t, "replicate", t.TempDir(), "--output", filepath.Join(t.TempDir(), "results"))
	assert.Contains(t, out, "No session files found")
}

func TestInvalidFlagValue(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"replicate", t.TempDir(), "--workers", "0"})
	err := root.Execute()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(errorLine(err), "error [CONFIG_INVALID]: "))
}

func TestErrorLine_PlainError(t *testing.T) {
	assert.Equal(t, "error: unknown command", errorLine(stderrors.New("unknown command")))
}

func TestShow_RequiresValidRunID(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"show", "not-a-run"})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestShowRun(t *testing.T) {
	sink := testkit.NewInMemoryResultsSink()
	ctx := context.Background()
	m := run.NewAnalysisManifest(core.NewRunID(), run.ScenarioTrials, "/data", []string{"a.txt"}, nil, "test")
	m.RecordOutcome(nil)
	agg := metrics.NewAggregateMetrics(metrics.GroupKey{Participant: "07", Condition: "1"},
		metrics.Counts{TotalTrials: 10, ChoicesA: 7, ChoicesB: 3, RunsA: 2, RunsB: 2, Changeovers: 3}, 1)
	require.NoError(t, sink.SaveBatch(ctx, ports.ResultsBatch{Manifest: m, Aggregates: []metrics.AggregateMetrics{agg}}))

	var out bytes.Buffer
	require.NoError(t, showRun(ctx, &out, sink, m.RunID, report.DefaultOptions()))
	assert.Contains(t, out.String(), "# Stored run "+m.RunID.String())
	assert.Contains(t, out.String(), "1 found, 1 processed, 0 failed")
	assert.Contains(t, out.String(), "P07 C1")

	err := showRun(ctx, &out, sink, core.NewRunID(), report.DefaultOptions())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
