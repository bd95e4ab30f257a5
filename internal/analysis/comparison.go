package analysis

import (
	"math"
	"sort"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
)

// Constants of the relative log-ratio transform
const (
	RelativeEpsilon = 1e-4
	RelativeLimit   = 0.999 // |r| at or above this is skipped
)

// RelativeValue maps a proportion in [0, 1] to 2p - 1 in [-1, 1]
func RelativeValue(p float64) float64 {
	if !core.IsDefined(p) {
		return core.Undefined()
	}
	return 2*p - 1
}

// RelativeLogRatio is log10((1+r+ε)/(1-r+ε)), undefined for |r| >= 0.999
func RelativeLogRatio(r float64) float64 {
	if !core.IsDefined(r) || math.Abs(r) >= RelativeLimit {
		return core.Undefined()
	}
	return math.Log10((1 + r + RelativeEpsilon) / (1 - r + RelativeEpsilon))
}

// ScenarioPair joins the saccade (trial) and fixation (time) readings of
// the same participant, condition and session
type ScenarioPair struct {
	Participant      core.ParticipantID `json:"participant"`
	Condition        core.ConditionID   `json:"condition"`
	Session          core.SessionID     `json:"session"`
	RelativeTrials   float64            `json:"relative_trials"`
	RelativeFixation float64            `json:"relative_fixation"`
	LogRatioTrials   float64            `json:"log_ratio_trials"`
	LogRatioFixation float64            `json:"log_ratio_fixation"`
}

// Plottable reports whether both log ratios are defined
func (p ScenarioPair) Plottable() bool {
	return core.IsDefined(p.LogRatioTrials) && core.IsDefined(p.LogRatioFixation)
}

type sessionTriple struct {
	participant core.ParticipantID
	condition   core.ConditionID
	session     core.SessionID
}

// CompareScenarios inner-joins saccade sessions with fixation sessions on
// (participant, condition, session). Each matching pair is emitted; the
// output is sorted by the join key.
func CompareScenarios(saccades []metrics.SessionMetrics, fixations []metrics.VisitMetrics) []ScenarioPair {
	byKey := make(map[sessionTriple][]metrics.VisitMetrics)
	for _, f := range fixations {
		k := sessionTriple{f.Key.Participant, f.Key.Condition, f.Key.Session}
		byKey[k] = append(byKey[k], f)
	}

	var pairs []ScenarioPair
	for _, s := range saccades {
		k := sessionTriple{s.Key.Participant, s.Key.Condition, s.Key.Session}
		for _, f := range byKey[k] {
			relTrials := RelativeValue(s.ObservedPropA)
			relFix := RelativeValue(f.ObservedPropA)
			pair := ScenarioPair{
				Participant:      k.participant,
				Condition:        k.condition,
				Session:          k.session,
				RelativeTrials:   relTrials,
				RelativeFixation: relFix,
				LogRatioTrials:   core.Undefined(),
				LogRatioFixation: core.Undefined(),
			}
			// both must be inside the limit for the point to be kept
			if lt, lf := RelativeLogRatio(relTrials), RelativeLogRatio(relFix); core.IsDefined(lt) && core.IsDefined(lf) {
				pair.LogRatioTrials, pair.LogRatioFixation = lt, lf
			}
			pairs = append(pairs, pair)
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if c := core.CompareNumeric(string(a.Participant), string(b.Participant)); c != 0 {
			return c < 0
		}
		if c := core.CompareNumeric(string(a.Condition), string(b.Condition)); c != 0 {
			return c < 0
		}
		return core.CompareNumeric(string(a.Session), string(b.Session)) < 0
	})
	return pairs
}
