package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"leavingrate/domain/choice"
)

// NormalizeStats records what the normalizer discarded or collapsed
type NormalizeStats struct {
	RowsRead          int `json:"rows_read"`
	DroppedMissing    int `json:"dropped_missing"`     // a required field was absent or blank
	DroppedSide       int `json:"dropped_side"`        // side label outside {1, 2}
	DroppedTrialIndex int `json:"dropped_trial_index"` // trial index not an exact integer
	DuplicateRows     int `json:"duplicate_rows"`      // rows folded into an earlier trial
	Trials            int `json:"trials"`
}

// Dropped returns the number of rows discarded for any reason
func (s NormalizeStats) Dropped() int {
	return s.DroppedMissing + s.DroppedSide + s.DroppedTrialIndex
}

type trialGroup struct {
	trialIndex    int64
	firstSide     choice.Side
	countA        int
	countB        int
	reinforcement float64
}

func (g *trialGroup) modalSide() choice.Side {
	switch {
	case g.countA > g.countB:
		return choice.SideA
	case g.countB > g.countA:
		return choice.SideB
	default:
		return g.firstSide
	}
}

// Normalize turns the raw rows of one session into a validated Sequence.
// Rows missing a field or carrying a side outside {1, 2} are dropped.
// Rows sharing a trial index collapse to one record with the modal side
// (first seen wins a tie) and reinforcement = sum of the group > 0.
// Non-numeric reinforcement text counts as 0.
func Normalize(raw []choice.RawRecord) (choice.Sequence, NormalizeStats) {
	stats := NormalizeStats{RowsRead: len(raw)}
	groups := make(map[int64]*trialGroup)

	for _, r := range raw {
		if !r.Complete() {
			stats.DroppedMissing++
			continue
		}
		trial, ok := parseTrialIndex(r.TrialIndex)
		if !ok {
			stats.DroppedTrialIndex++
			continue
		}
		side, err := choice.ParseSide(r.Side)
		if err != nil {
			stats.DroppedSide++
			continue
		}

		g, seen := groups[trial]
		if !seen {
			g = &trialGroup{trialIndex: trial, firstSide: side}
			groups[trial] = g
		} else {
			stats.DuplicateRows++
		}
		if side == choice.SideA {
			g.countA++
		} else {
			g.countB++
		}
		g.reinforcement += parseReinforcement(r.Reinforcement)
	}

	ordered := make([]*trialGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].trialIndex < ordered[j].trialIndex
	})

	records := make([]choice.Record, 0, len(ordered))
	for _, g := range ordered {
		records = append(records, choice.Record{
			TrialIndex: g.trialIndex,
			Side:       g.modalSide(),
			Reinforced: g.reinforcement > 0,
		})
	}
	stats.Trials = len(records)

	seq, err := choice.NewSequence(records)
	if err != nil {
		// unreachable: records are sorted, unique and carry valid sides
		return choice.Sequence{}, stats
	}
	return seq, stats
}

// NormalizeSides keeps the labels equal to 1 or 2, in order, and builds a
// row-level sequence from them. Used when every row is one choice.
func NormalizeSides(labels []string) (choice.Sequence, NormalizeStats) {
	stats := NormalizeStats{RowsRead: len(labels)}
	sides := make([]choice.Side, 0, len(labels))
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			stats.DroppedMissing++
			continue
		}
		side, err := choice.ParseSide(label)
		if err != nil {
			stats.DroppedSide++
			continue
		}
		sides = append(sides, side)
	}
	stats.Trials = len(sides)

	seq, err := choice.SequenceFromSides(sides)
	if err != nil {
		return choice.Sequence{}, stats
	}
	return seq, stats
}

// maxExactFloatIndex bounds float-formatted indices ("12.0") to the range a
// float64 holds without rounding.
const maxExactFloatIndex = 1 << 53

func parseTrialIndex(raw string) (int64, bool) {
	text := strings.TrimSpace(raw)
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, true
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	if math.Abs(v) > maxExactFloatIndex {
		return 0, false
	}
	return int64(v), true
}

func parseReinforcement(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}
