package analysis

import (
	"gonum.org/v1/gonum/stat"

	"leavingrate/domain/choice"
	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
)

// DefaultMinPositionSupport is the run count below which a position's
// exit probability is flagged as low support.
const DefaultMinPositionSupport = 5

// ExitProfile computes the discrete hazard of side's runs for positions
// 1..max run length:
//
//	NTotal    = runs with length >= p
//	NExited   = runs with length == p
//	NSurvived = NTotal - NExited
//
// Positions with NTotal < minSupport are flagged LowSupport.
func ExitProfile(runs []choice.Run, side choice.Side, minSupport int) metrics.ExitProfile {
	lengths := RunLengths(runs, side)
	profile := metrics.ExitProfile{Side: side, Runs: len(lengths), Points: []metrics.ExitPoint{}}

	maxLen := 0
	histogram := make(map[int]int)
	for _, l := range lengths {
		histogram[l]++
		if l > maxLen {
			maxLen = l
		}
	}

	reached := len(lengths)
	for p := 1; p <= maxLen; p++ {
		exited := histogram[p]
		profile.Points = append(profile.Points, metrics.ExitPoint{
			Position:        p,
			ExitProbability: core.CountRatio(exited, reached),
			NSurvived:       reached - exited,
			NExited:         exited,
			NTotal:          reached,
			LowSupport:      reached < minSupport,
		})
		reached -= exited
	}
	return profile
}

// HazardTrend is a support-weighted linear fit of exit probability on
// position. A slope near zero is consistent with a constant leaving rate.
type HazardTrend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Positions int     `json:"positions"`
}

// Trend fits the hazard trend over positions with at least minSupport runs.
// Slope and intercept are NaN with fewer than two usable positions.
func Trend(profile metrics.ExitProfile, minSupport int) HazardTrend {
	var xs, ys, weights []float64
	for _, pt := range profile.Points {
		if pt.NTotal == 0 || pt.NTotal < minSupport {
			continue
		}
		xs = append(xs, float64(pt.Position))
		ys = append(ys, pt.ExitProbability)
		weights = append(weights, float64(pt.NTotal))
	}

	trend := HazardTrend{Slope: core.Undefined(), Intercept: core.Undefined(), Positions: len(xs)}
	if len(xs) < 2 {
		return trend
	}
	alpha, beta := stat.LinearRegression(xs, ys, weights, false)
	trend.Intercept = alpha
	trend.Slope = beta
	return trend
}
