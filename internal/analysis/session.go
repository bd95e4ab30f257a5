package analysis

import (
	"leavingrate/domain/choice"
	"leavingrate/domain/metrics"
)

// Options carries the tunables of a session analysis
type Options struct {
	MinPositionSupport  int
	ExactMatchTolerance float64
}

// DefaultOptions returns the defaults used when no configuration is given
func DefaultOptions() Options {
	return Options{
		MinPositionSupport:  DefaultMinPositionSupport,
		ExactMatchTolerance: metrics.DefaultExactMatchTolerance,
	}
}

// SessionAnalysis is everything derived from one session's sequence
type SessionAnalysis struct {
	Key          metrics.SessionKey     `json:"key"`
	Normalize    NormalizeStats         `json:"normalize"`
	Sequence     choice.Sequence        `json:"-"`
	Runs         []choice.Run           `json:"runs"`
	Metrics      metrics.SessionMetrics `json:"metrics"`
	ExitProfileA metrics.ExitProfile    `json:"exit_profile_a"`
	ExitProfileB metrics.ExitProfile    `json:"exit_profile_b"`
	Prediction   metrics.Prediction     `json:"prediction"`
}

// ExitProfile returns the profile for side
func (a SessionAnalysis) ExitProfile(side choice.Side) metrics.ExitProfile {
	if side == choice.SideB {
		return a.ExitProfileB
	}
	return a.ExitProfileA
}

// AnalyzeSequence runs segmentation and metric derivation on one sequence
func AnalyzeSequence(key metrics.SessionKey, seq choice.Sequence, opts Options) SessionAnalysis {
	runs := Segment(seq)
	m := metrics.NewSessionMetrics(key, CountsFromRuns(seq, runs))

	return SessionAnalysis{
		Key:          key,
		Sequence:     seq,
		Runs:         runs,
		Metrics:      m,
		ExitProfileA: ExitProfile(runs, choice.SideA, opts.MinPositionSupport),
		ExitProfileB: ExitProfile(runs, choice.SideB, opts.MinPositionSupport),
		Prediction:   Compare(m.ObservedPropA, m.PredictedPropA, opts.ExactMatchTolerance),
	}
}

// AnalyzeRecords normalizes raw trial rows and analyzes the result
func AnalyzeRecords(key metrics.SessionKey, raw []choice.RawRecord, opts Options) SessionAnalysis {
	seq, stats := Normalize(raw)
	a := AnalyzeSequence(key, seq, opts)
	a.Normalize = stats
	return a
}

// AnalyzeSides analyzes a row-level sequence of side labels
func AnalyzeSides(key metrics.SessionKey, labels []string, opts Options) SessionAnalysis {
	seq, stats := NormalizeSides(labels)
	a := AnalyzeSequence(key, seq, opts)
	a.Normalize = stats
	return a
}

// CountsFromRuns tallies the summable counts of a segmented sequence
func CountsFromRuns(seq choice.Sequence, runs []choice.Run) metrics.Counts {
	return metrics.Counts{
		TotalTrials:     seq.Len(),
		ChoicesA:        seq.CountSide(choice.SideA),
		ChoicesB:        seq.CountSide(choice.SideB),
		ReinforcementsA: seq.ReinforcementsOn(choice.SideA),
		ReinforcementsB: seq.ReinforcementsOn(choice.SideB),
		RunsA:           len(choice.RunsOn(runs, choice.SideA)),
		RunsB:           len(choice.RunsOn(runs, choice.SideB)),
		Changeovers:     ChangeoversFromRuns(runs),
	}
}
