package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements_Idempotent(t *testing.T) {
	runner := NewRunner()
	stmts := runner.Statements()

	require.Len(t, stmts, 4)
	assert.Equal(t, "1.1.0", runner.Version())
	for _, s := range stmts {
		assert.Contains(t, s, "IF NOT EXISTS")
	}
}

func TestStatements_ChildTablesFollowRuns(t *testing.T) {
	stmts := NewRunner().Statements()

	assert.True(t, strings.Contains(stmts[0], "analysis_runs ("))
	assert.Contains(t, stmts[1], "REFERENCES analysis_runs(run_id)")
	assert.Contains(t, stmts[2], "REFERENCES analysis_runs(run_id)")
}

func TestStatements_KeysKeepFileDigits(t *testing.T) {
	stmts := NewRunner().Statements()

	for _, s := range stmts[1:3] {
		assert.Contains(t, s, "participant TEXT NOT NULL")
		assert.Contains(t, s, "condition TEXT NOT NULL")
	}
	assert.Contains(t, stmts[1], "session TEXT NOT NULL")
}
