package analysis

import (
	"math"
	"strconv"
	"strings"

	"leavingrate/domain/choice"
	"leavingrate/domain/metrics"
)

// RawFixation is one fixation row before validation
type RawFixation struct {
	AreaLabel string
	Duration  string // milliseconds
}

// Fixation is a validated fixation on one of the two sample areas
type Fixation struct {
	Side     choice.Side
	Duration float64 // milliseconds
}

// Visit is a block of consecutive fixations on the same side
type Visit struct {
	Side      choice.Side `json:"side"`
	Fixations int         `json:"fixations"`
	Seconds   float64     `json:"seconds"`
}

// FixationStats records what NormalizeFixations discarded
type FixationStats struct {
	RowsRead        int `json:"rows_read"`
	DroppedMissing  int `json:"dropped_missing"`
	DroppedArea     int `json:"dropped_area"` // label outside the two sample areas
	DroppedDuration int `json:"dropped_duration"`
	Fixations       int `json:"fixations"`
}

// NormalizeFixations keeps fixations on the left or right sample with a
// numeric, non-negative duration, preserving file order.
func NormalizeFixations(raw []RawFixation) ([]Fixation, FixationStats) {
	stats := FixationStats{RowsRead: len(raw)}
	out := make([]Fixation, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.AreaLabel) == "" || strings.TrimSpace(r.Duration) == "" {
			stats.DroppedMissing++
			continue
		}
		side, err := choice.ParseAreaLabel(r.AreaLabel)
		if err != nil {
			stats.DroppedArea++
			continue
		}
		ms, err := strconv.ParseFloat(strings.TrimSpace(r.Duration), 64)
		if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
			stats.DroppedDuration++
			continue
		}
		out = append(out, Fixation{Side: side, Duration: ms})
	}
	stats.Fixations = len(out)
	return out, stats
}

// Visits merges consecutive same-side fixations and converts their summed
// duration to seconds.
func Visits(fixations []Fixation) []Visit {
	visits := make([]Visit, 0)
	for _, f := range fixations {
		if n := len(visits); n > 0 && visits[n-1].Side == f.Side {
			visits[n-1].Fixations++
			visits[n-1].Seconds += f.Duration / 1000.0
			continue
		}
		visits = append(visits, Visit{Side: f.Side, Fixations: 1, Seconds: f.Duration / 1000.0})
	}
	return visits
}

// VisitCounts tallies the summable visit counts
func VisitCounts(visits []Visit) metrics.VisitCounts {
	var c metrics.VisitCounts
	for _, v := range visits {
		c.Fixations += v.Fixations
		switch v.Side {
		case choice.SideA:
			c.VisitsA++
			c.SecondsA += v.Seconds
		case choice.SideB:
			c.VisitsB++
			c.SecondsB += v.Seconds
		}
	}
	return c
}

// VisitAnalysis is the duration-scenario result of one fixation file
type VisitAnalysis struct {
	Key        metrics.SessionKey   `json:"key"`
	Normalize  FixationStats        `json:"normalize"`
	Visits     []Visit              `json:"visits"`
	Metrics    metrics.VisitMetrics `json:"metrics"`
	Prediction metrics.Prediction   `json:"prediction"`
}

// AnalyzeFixations derives visit-based leaving rates for one session
func AnalyzeFixations(key metrics.SessionKey, raw []RawFixation, opts Options) VisitAnalysis {
	fixations, stats := NormalizeFixations(raw)
	visits := Visits(fixations)
	m := metrics.NewVisitMetrics(key, VisitCounts(visits))
	return VisitAnalysis{
		Key:        key,
		Normalize:  stats,
		Visits:     visits,
		Metrics:    m,
		Prediction: Compare(m.ObservedPropA, m.PredictedPropA, opts.ExactMatchTolerance),
	}
}
