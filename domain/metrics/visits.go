package metrics

import (
	"leavingrate/domain/core"
)

// VisitCounts holds summable tallies for the duration-based scenario, where
// a visit is a block of consecutive fixations on the same area of interest.
type VisitCounts struct {
	Fixations int     `json:"fixations"`
	VisitsA   int     `json:"visits_a"`
	VisitsB   int     `json:"visits_b"`
	SecondsA  float64 `json:"seconds_a"`
	SecondsB  float64 `json:"seconds_b"`
}

// Add returns the element-wise sum of c and o
func (c VisitCounts) Add(o VisitCounts) VisitCounts {
	return VisitCounts{
		Fixations: c.Fixations + o.Fixations,
		VisitsA:   c.VisitsA + o.VisitsA,
		VisitsB:   c.VisitsB + o.VisitsB,
		SecondsA:  c.SecondsA + o.SecondsA,
		SecondsB:  c.SecondsB + o.SecondsB,
	}
}

// VisitRates is the time-based reading of the leaving-rate model:
// lambda = 1 / mean visit duration (per second), observed = share of time.
type VisitRates struct {
	MeanVisitA     float64 `json:"mean_visit_a"`
	MeanVisitB     float64 `json:"mean_visit_b"`
	LeavingRateA   float64 `json:"lambda_a"`
	LeavingRateB   float64 `json:"lambda_b"`
	ObservedPropA  float64 `json:"observed_prop_a"`
	PredictedPropA float64 `json:"predicted_prop_a"`
}

// NewVisitRates derives every ratio from counts
func NewVisitRates(counts VisitCounts) VisitRates {
	meanA := meanDuration(counts.SecondsA, counts.VisitsA)
	meanB := meanDuration(counts.SecondsB, counts.VisitsB)
	lambdaA := LeavingRate(meanA)
	lambdaB := LeavingRate(meanB)

	observed := core.Undefined()
	if total := counts.SecondsA + counts.SecondsB; total > 0 {
		observed = counts.SecondsA / total
	}

	return VisitRates{
		MeanVisitA:     meanA,
		MeanVisitB:     meanB,
		LeavingRateA:   lambdaA,
		LeavingRateB:   lambdaB,
		ObservedPropA:  observed,
		PredictedPropA: PredictedProportion(lambdaA, lambdaB),
	}
}

// Difference is |observed - predicted| for side A
func (r VisitRates) Difference() float64 {
	return Deviation(r.ObservedPropA, r.PredictedPropA)
}

// VisitMetrics is the duration-scenario summary of one fixation file
type VisitMetrics struct {
	Key    SessionKey  `json:"key"`
	Counts VisitCounts `json:"counts"`
	VisitRates
}

// NewVisitMetrics derives the rates of one session
func NewVisitMetrics(key SessionKey, counts VisitCounts) VisitMetrics {
	return VisitMetrics{Key: key, Counts: counts, VisitRates: NewVisitRates(counts)}
}

// AggregateVisitMetrics sums durations and visit counts over a
// (participant, condition) key before recomputing the rates.
type AggregateVisitMetrics struct {
	Key      GroupKey    `json:"key"`
	Sessions int         `json:"sessions"`
	Counts   VisitCounts `json:"counts"`
	VisitRates
}

// NewAggregateVisitMetrics recomputes the rates once from summed counts
func NewAggregateVisitMetrics(key GroupKey, counts VisitCounts, sessions int) AggregateVisitMetrics {
	return AggregateVisitMetrics{Key: key, Sessions: sessions, Counts: counts, VisitRates: NewVisitRates(counts)}
}

func meanDuration(seconds float64, visits int) float64 {
	if visits <= 0 {
		return core.Undefined()
	}
	return seconds / float64(visits)
}
