package config

import (
	"testing"

	"leavingrate/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"INPUT_DIR", "OUTPUT_DIR", "WORKERS", "EXACT_MATCH_TOLERANCE", "MIN_POSITION_SUPPORT", "REPORT_MAX_POSITIONS", "REPORT_HTML", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Paths.InputDir)
	assert.Equal(t, "./leaving_rate_results", cfg.Paths.OutputDir)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 0.001, cfg.Analysis.ExactMatchTolerance)
	assert.Equal(t, 5, cfg.Analysis.MinPositionSupport)
	assert.Equal(t, 10, cfg.Report.MaxPositions)
	assert.False(t, cfg.Report.HTML)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("INPUT_DIR", "/data/eye")
	t.Setenv("WORKERS", "8")
	t.Setenv("EXACT_MATCH_TOLERANCE", "0.01")
	t.Setenv("REPORT_HTML", "true")
	t.Setenv("DATABASE_URL", "postgres://localhost/leaving")
	t.Setenv("MIN_POSITION_SUPPORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/eye", cfg.Paths.InputDir)
	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.Equal(t, 0.01, cfg.Analysis.ExactMatchTolerance)
	assert.True(t, cfg.Report.HTML)
	assert.True(t, cfg.Database.Enabled())
	// unparseable values fall back to the default
	assert.Equal(t, 5, cfg.Analysis.MinPositionSupport)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("WORKERS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
