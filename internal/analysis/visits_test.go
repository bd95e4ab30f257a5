package analysis

import (
	"math"
	"testing"

	"leavingrate/domain/choice"
	"leavingrate/domain/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metrics0() metrics.SessionKey {
	return metrics.SessionKey{RecordType: metrics.RecordFixation, Participant: "1", Condition: "1", Session: "1", Option: 1}
}

func TestNormalizeFixations(t *testing.T) {
	fixations, stats := NormalizeFixations([]RawFixation{
		{AreaLabel: "LeftSample", Duration: "200"},
		{AreaLabel: "Right_Sample", Duration: "300"},
		{AreaLabel: "Fixation_Cross", Duration: "150"},
		{AreaLabel: "RightSample", Duration: "n/a"},
		{AreaLabel: "", Duration: "100"},
		{AreaLabel: "RightSample", Duration: "-5"},
	})

	require.Len(t, fixations, 2)
	assert.Equal(t, choice.SideA, fixations[0].Side)
	assert.Equal(t, choice.SideB, fixations[1].Side)
	assert.Equal(t, 1, stats.DroppedArea)
	assert.Equal(t, 2, stats.DroppedDuration)
	assert.Equal(t, 1, stats.DroppedMissing)
}

func TestVisits_MergeConsecutiveFixations(t *testing.T) {
	visits := Visits([]Fixation{
		{Side: choice.SideA, Duration: 200},
		{Side: choice.SideA, Duration: 300},
		{Side: choice.SideB, Duration: 250},
		{Side: choice.SideA, Duration: 1000},
		{Side: choice.SideB, Duration: 250},
		{Side: choice.SideB, Duration: 500},
	})

	require.Len(t, visits, 4)
	assert.Equal(t, 2, visits[0].Fixations)
	assert.InDelta(t, 0.5, visits[0].Seconds, 1e-12)
	assert.InDelta(t, 0.75, visits[3].Seconds, 1e-12)

	counts := VisitCounts(visits)
	assert.Equal(t, 6, counts.Fixations)
	assert.Equal(t, 2, counts.VisitsA)
	assert.Equal(t, 2, counts.VisitsB)
	assert.InDelta(t, 1.5, counts.SecondsA, 1e-12)
	assert.InDelta(t, 1.0, counts.SecondsB, 1e-12)
}

func TestAnalyzeFixations(t *testing.T) {
	a := AnalyzeFixations(metrics0(), []RawFixation{
		{AreaLabel: "LeftSample", Duration: "500"},
		{AreaLabel: "RightSample", Duration: "250"},
		{AreaLabel: "LeftSample", Duration: "1000"},
		{AreaLabel: "RightSample", Duration: "250"},
	}, DefaultOptions())

	// mean visit A = 0.75 s, B = 0.25 s; lambda A = 4/3, lambda B = 4
	assert.InDelta(t, 4.0/3.0, a.Metrics.LeavingRateA, 1e-12)
	assert.InDelta(t, 4.0, a.Metrics.LeavingRateB, 1e-12)
	assert.InDelta(t, 0.75, a.Metrics.ObservedPropA, 1e-12)
	assert.InDelta(t, 0.75, a.Metrics.PredictedPropA, 1e-12)
	assert.True(t, a.Prediction.ExactMatch)

	none := AnalyzeFixations(metrics0(), nil, DefaultOptions())
	assert.True(t, math.IsNaN(none.Metrics.ObservedPropA))
	assert.False(t, none.Prediction.Defined)
}

func TestAggregateVisits(t *testing.T) {
	k1 := metrics0()
	k2 := k1
	k2.Session = "2"

	v1 := metrics.NewVisitMetrics(k1, metrics.VisitCounts{Fixations: 3, VisitsA: 1, VisitsB: 1, SecondsA: 1.0, SecondsB: 0.5})
	v2 := metrics.NewVisitMetrics(k2, metrics.VisitCounts{Fixations: 4, VisitsA: 3, VisitsB: 1, SecondsA: 2.0, SecondsB: 1.5})

	aggs := AggregateVisits([]metrics.VisitMetrics{v2, v1})
	require.Len(t, aggs, 1)
	assert.Equal(t, 2, aggs[0].Sessions)
	assert.Equal(t, 4, aggs[0].Counts.VisitsA)
	assert.InDelta(t, 0.75, aggs[0].MeanVisitA, 1e-12)
	assert.InDelta(t, 1.0, aggs[0].MeanVisitB, 1e-12)
	assert.InDelta(t, 3.0/5.0, aggs[0].ObservedPropA, 1e-12)
}
