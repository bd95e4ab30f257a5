package choice

import (
	"fmt"

	"leavingrate/domain/core"
)

// Sequence is the ordered, validated choice sequence of one session.
// INVARIANTS:
// - trial indices strictly ascending (no duplicates)
// - every record has a valid side
type Sequence struct {
	records []Record
}

// NewSequence validates records and wraps them in a Sequence. The input
// slice is copied so later mutation by the caller cannot break invariants.
func NewSequence(records []Record) (Sequence, error) {
	for i, r := range records {
		if !r.Side.Valid() {
			return Sequence{}, core.NewSequenceError(i, fmt.Sprintf("side %d is not 1 or 2", int(r.Side)))
		}
		if i > 0 && r.TrialIndex <= records[i-1].TrialIndex {
			return Sequence{}, core.NewSequenceError(i, fmt.Sprintf("trial index %d does not follow %d", r.TrialIndex, records[i-1].TrialIndex))
		}
	}
	copied := make([]Record, len(records))
	copy(copied, records)
	return Sequence{records: copied}, nil
}

// SequenceFromSides builds a sequence with trial indices 1..n. Used for
// row-level scenarios where file order is the only ordering.
func SequenceFromSides(sides []Side) (Sequence, error) {
	records := make([]Record, len(sides))
	for i, s := range sides {
		records[i] = Record{TrialIndex: int64(i + 1), Side: s}
	}
	return NewSequence(records)
}

// Len returns the number of trials
func (s Sequence) Len() int { return len(s.records) }

// IsEmpty reports whether the sequence has no trials
func (s Sequence) IsEmpty() bool { return len(s.records) == 0 }

// At returns the record at position i
func (s Sequence) At(i int) Record { return s.records[i] }

// Records returns a copy of the underlying records
func (s Sequence) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Sides returns the side of each trial in order
func (s Sequence) Sides() []Side {
	out := make([]Side, len(s.records))
	for i, r := range s.records {
		out[i] = r.Side
	}
	return out
}

// CountSide returns the number of trials on side
func (s Sequence) CountSide(side Side) int {
	n := 0
	for _, r := range s.records {
		if r.Side == side {
			n++
		}
	}
	return n
}

// ReinforcementsOn returns the number of reinforced trials on side
func (s Sequence) ReinforcementsOn(side Side) int {
	n := 0
	for _, r := range s.records {
		if r.Side == side && r.Reinforced {
			n++
		}
	}
	return n
}

func errInvalidRecordSide(trialIndex int64, side Side) error {
	return fmt.Errorf("%w: trial %d has side %d", core.ErrInvalidSide, trialIndex, int(side))
}
