package metrics

import (
	"leavingrate/domain/core"
)

// AggregateMetrics summarizes every session sharing a (participant, condition)
// key. It is built from summed Counts; no per-session ratio is averaged.
type AggregateMetrics struct {
	Key      GroupKey `json:"key"`
	Sessions int      `json:"sessions"`
	Counts   Counts   `json:"counts"`

	MeanRunLengthA        float64 `json:"d_a"`
	MeanRunLengthB        float64 `json:"d_b"`
	LeavingRateA          float64 `json:"lambda_a"`
	LeavingRateB          float64 `json:"lambda_b"`
	ChangeoverRate        float64 `json:"changeover_rate"`
	RelativeReinforcement float64 `json:"relative_reinforcement"`
	ObservedPropA         float64 `json:"observed_prop_a"`
	PredictedPropA        float64 `json:"predicted_prop_a"`
	LogPreference         float64 `json:"log_preference"`
	LogLambdaRatio        float64 `json:"log_lambda_ratio"`
	SumLambdas            float64 `json:"sum_lambdas"`
}

// NewAggregateMetrics recomputes every derived field once from counts
func NewAggregateMetrics(key GroupKey, counts Counts, sessions int) AggregateMetrics {
	dA := MeanRunLength(counts.ChoicesA, counts.RunsA)
	dB := MeanRunLength(counts.ChoicesB, counts.RunsB)
	lambdaA := LeavingRate(dA)
	lambdaB := LeavingRate(dB)

	return AggregateMetrics{
		Key:                   key,
		Sessions:              sessions,
		Counts:                counts,
		MeanRunLengthA:        dA,
		MeanRunLengthB:        dB,
		LeavingRateA:          lambdaA,
		LeavingRateB:          lambdaB,
		ChangeoverRate:        core.CountRatio(counts.Changeovers, counts.TotalTrials),
		RelativeReinforcement: core.CountRatio(counts.ReinforcementsA, counts.ReinforcementsA+counts.ReinforcementsB),
		ObservedPropA:         core.CountRatio(counts.ChoicesA, counts.ChoicesA+counts.ChoicesB),
		PredictedPropA:        PredictedProportion(lambdaA, lambdaB),
		LogPreference:         core.Log10Ratio(float64(counts.ChoicesA), float64(counts.ChoicesB)),
		LogLambdaRatio:        core.Log10Ratio(lambdaB, lambdaA),
		SumLambdas:            core.Sum(lambdaA, lambdaB),
	}
}

// Merge folds one more session's raw counts into the aggregate and returns
// a new value; the receiver is left untouched.
func (a AggregateMetrics) Merge(s SessionMetrics) AggregateMetrics {
	return NewAggregateMetrics(a.Key, a.Counts.Add(s.Counts), a.Sessions+1)
}

// Difference is |observed - predicted| for side A
func (a AggregateMetrics) Difference() float64 {
	return Deviation(a.ObservedPropA, a.PredictedPropA)
}
