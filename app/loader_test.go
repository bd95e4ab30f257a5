package app

import (
	"context"
	"testing"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
	"leavingrate/internal/analysis"
	"leavingrate/internal/dataset"
	"leavingrate/internal/errors"
	"leavingrate/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableReader serves fixed tables instead of reading files
type tableReader struct {
	tables map[string]*ports.SessionTable
}

func (r tableReader) ReadSession(ctx context.Context, path string, required []string) (*ports.SessionTable, error) {
	t, ok := r.tables[path]
	if !ok {
		return nil, core.ErrUnreadableInput
	}
	return t, nil
}

func file(path string, key metrics.SessionKey) dataset.SessionFile {
	return dataset.SessionFile{Path: path, Key: key}
}

func TestLoadTrials(t *testing.T) {
	table := &ports.SessionTable{
		Headers: dataset.TrialColumns,
		Rows: []map[string]string{
			{"TRIAL_INDEX": "2", "LADO": "2", "ACCURACY": "0"},
			{"TRIAL_INDEX": "1", "LADO": "1", "ACCURACY": "1"},
			{"TRIAL_INDEX": "1", "LADO": "1", "ACCURACY": "0"},
			{"TRIAL_INDEX": "3", "LADO": "1"},
		},
	}
	loader := NewSessionLoader(tableReader{map[string]*ports.SessionTable{"a.txt": table}}, analysis.DefaultOptions())

	a, err := loader.LoadTrials(context.Background(), file("a.txt", metrics.SessionKey{Participant: "1"}))
	require.NoError(t, err)

	assert.Equal(t, 2, a.Metrics.Counts.TotalTrials)
	assert.Equal(t, 1, a.Metrics.Counts.ReinforcementsA)
	assert.Equal(t, 1, a.Normalize.DroppedMissing)
	assert.Equal(t, 1, a.Metrics.Counts.Changeovers)
}

func TestLoadSaccades_NoValidRows(t *testing.T) {
	table := &ports.SessionTable{
		Headers: dataset.SaccadeColumns,
		Rows:    []map[string]string{{"LADO": "0"}, {"LADO": "."}},
	}
	loader := NewSessionLoader(tableReader{map[string]*ports.SessionTable{"s.txt": table}}, analysis.DefaultOptions())

	_, err := loader.LoadSaccades(context.Background(), file("s.txt", metrics.SessionKey{}))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoValidRows, errors.GetCode(err))
	assert.True(t, core.IsInputError(err))
}

func TestLoadFixations(t *testing.T) {
	table := &ports.SessionTable{
		Headers: dataset.FixationColumns,
		Rows: []map[string]string{
			{"CURRENT_FIX_INTEREST_AREA_LABEL": "LeftSample", "CURRENT_FIX_DURATION": "500"},
			{"CURRENT_FIX_INTEREST_AREA_LABEL": "LeftSample", "CURRENT_FIX_DURATION": "250"},
			{"CURRENT_FIX_INTEREST_AREA_LABEL": ".", "CURRENT_FIX_DURATION": "100"},
			{"CURRENT_FIX_INTEREST_AREA_LABEL": "RightSample", "CURRENT_FIX_DURATION": "250"},
		},
	}
	loader := NewSessionLoader(tableReader{map[string]*ports.SessionTable{"f.txt": table}}, analysis.DefaultOptions())

	a, err := loader.LoadFixations(context.Background(), file("f.txt", metrics.SessionKey{}))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Metrics.Counts.VisitsA)
	assert.Equal(t, 1, a.Metrics.Counts.VisitsB)
	assert.InDelta(t, 0.75, a.Metrics.Counts.SecondsA, 1e-12)
	assert.InDelta(t, 0.75, a.Metrics.ObservedPropA, 1e-12)

	_, err = loader.LoadFixations(context.Background(), file("missing.txt", metrics.SessionKey{}))
	assert.Equal(t, errors.CodeUnreadableInput, errors.GetCode(err))
}
