package metrics

import (
	"leavingrate/domain/choice"
	"leavingrate/domain/core"
)

// SessionMetrics is the derived summary of one processed session.
// INVARIANTS:
// - MeanRunLength* and LeavingRate* are NaN when the side has no runs
// - ChangeoverRate is NaN when TotalTrials is 0
type SessionMetrics struct {
	Key    SessionKey `json:"key"`
	Counts Counts     `json:"counts"`

	MeanRunLengthA float64 `json:"d_a"`
	MeanRunLengthB float64 `json:"d_b"`
	LeavingRateA   float64 `json:"lambda_a"`
	LeavingRateB   float64 `json:"lambda_b"`
	ChangeoverRate float64 `json:"changeover_rate"`
	ObservedPropA  float64 `json:"observed_prop_a"`
	PredictedPropA float64 `json:"predicted_prop_a"`
}

// NewSessionMetrics derives every ratio from counts
func NewSessionMetrics(key SessionKey, counts Counts) SessionMetrics {
	dA := MeanRunLength(counts.ChoicesA, counts.RunsA)
	dB := MeanRunLength(counts.ChoicesB, counts.RunsB)
	lambdaA := LeavingRate(dA)
	lambdaB := LeavingRate(dB)

	return SessionMetrics{
		Key:            key,
		Counts:         counts,
		MeanRunLengthA: dA,
		MeanRunLengthB: dB,
		LeavingRateA:   lambdaA,
		LeavingRateB:   lambdaB,
		ChangeoverRate: core.CountRatio(counts.Changeovers, counts.TotalTrials),
		ObservedPropA:  core.CountRatio(counts.ChoicesA, counts.TotalTrials),
		PredictedPropA: PredictedProportion(lambdaA, lambdaB),
	}
}

// MeanRunLength returns d for side
func (m SessionMetrics) MeanRunLength(side choice.Side) float64 {
	if side == choice.SideB {
		return m.MeanRunLengthB
	}
	return m.MeanRunLengthA
}

// LeavingRate returns lambda for side
func (m SessionMetrics) LeavingRate(side choice.Side) float64 {
	if side == choice.SideB {
		return m.LeavingRateB
	}
	return m.LeavingRateA
}

// Difference is |observed - predicted| for side A
func (m SessionMetrics) Difference() float64 {
	return Deviation(m.ObservedPropA, m.PredictedPropA)
}
