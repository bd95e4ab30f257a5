package analysis

import (
	"math"
	"testing"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeLogRatio(t *testing.T) {
	assert.InDelta(t, 0.0, RelativeLogRatio(0), 1e-12)
	assert.InDelta(t, math.Log10((1.5+RelativeEpsilon)/(0.5+RelativeEpsilon)), RelativeLogRatio(0.5), 1e-12)
	assert.InDelta(t, -RelativeLogRatio(0.4), RelativeLogRatio(-0.4), 1e-12)
	assert.True(t, math.IsNaN(RelativeLogRatio(0.999)))
	assert.True(t, math.IsNaN(RelativeLogRatio(-1)))
	assert.True(t, math.IsNaN(RelativeLogRatio(math.NaN())))

	assert.InDelta(t, 0.4, RelativeValue(0.7), 1e-12)
	assert.True(t, math.IsNaN(RelativeValue(math.NaN())))
}

func TestCompareScenarios(t *testing.T) {
	sacc := func(p core.ParticipantID, s core.SessionID, counts metrics.Counts) metrics.SessionMetrics {
		return metrics.NewSessionMetrics(metrics.SessionKey{RecordType: metrics.RecordSaccade, Participant: p, Condition: "1", Session: s, Option: 1}, counts)
	}
	fix := func(p core.ParticipantID, s core.SessionID, counts metrics.VisitCounts) metrics.VisitMetrics {
		return metrics.NewVisitMetrics(metrics.SessionKey{RecordType: metrics.RecordFixation, Participant: p, Condition: "1", Session: s, Option: 1}, counts)
	}

	saccades := []metrics.SessionMetrics{
		sacc("2", "1", metrics.Counts{TotalTrials: 4, ChoicesA: 3, ChoicesB: 1, RunsA: 1, RunsB: 1}),
		sacc("1", "1", metrics.Counts{TotalTrials: 4, ChoicesA: 4, RunsA: 1}),
		sacc("1", "9", metrics.Counts{TotalTrials: 4, ChoicesA: 2, ChoicesB: 2, RunsA: 1, RunsB: 1}),
	}
	fixations := []metrics.VisitMetrics{
		fix("1", "1", metrics.VisitCounts{VisitsA: 1, VisitsB: 1, SecondsA: 1, SecondsB: 1}),
		fix("2", "1", metrics.VisitCounts{VisitsA: 1, VisitsB: 1, SecondsA: 3, SecondsB: 1}),
	}

	pairs := CompareScenarios(saccades, fixations)
	require.Len(t, pairs, 2)

	// P1: all choices on side A -> relative 1, excluded from log ratios
	assert.Equal(t, core.ParticipantID("1"), pairs[0].Participant)
	assert.InDelta(t, 1.0, pairs[0].RelativeTrials, 1e-12)
	assert.False(t, pairs[0].Plottable())

	assert.Equal(t, core.ParticipantID("2"), pairs[1].Participant)
	assert.InDelta(t, 0.5, pairs[1].RelativeTrials, 1e-12)
	assert.InDelta(t, 0.5, pairs[1].RelativeFixation, 1e-12)
	assert.True(t, pairs[1].Plottable())
	assert.InDelta(t, pairs[1].LogRatioTrials, pairs[1].LogRatioFixation, 1e-12)
}
