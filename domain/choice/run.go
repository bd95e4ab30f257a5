package choice

import (
	"fmt"

	"leavingrate/domain/core"
)

// Run is a maximal block of consecutive trials on the same side
type Run struct {
	Side         Side    `json:"side"`
	StartIndex   int     `json:"start_index"` // position in the Sequence, not the trial index
	Length       int     `json:"length"`      // >= 1
	TrialIndices []int64 `json:"trial_indices"`
}

// EndIndex returns the sequence position just past the run
func (r Run) EndIndex() int {
	return r.StartIndex + r.Length
}

// RunsOn filters runs to a single side, preserving order
func RunsOn(runs []Run, side Side) []Run {
	var out []Run
	for _, r := range runs {
		if r.Side == side {
			out = append(out, r)
		}
	}
	return out
}

// ValidateRuns checks that runs partition seq exactly: contiguous, in order,
// alternating sides, lengths summing to seq.Len().
func ValidateRuns(seq Sequence, runs []Run) error {
	pos := 0
	for i, r := range runs {
		if r.Length < 1 || len(r.TrialIndices) != r.Length {
			return core.NewSequenceError(pos, fmt.Sprintf("run %d has length %d with %d trials", i, r.Length, len(r.TrialIndices)))
		}
		if r.StartIndex != pos {
			return core.NewSequenceError(pos, fmt.Sprintf("run %d starts at %d", i, r.StartIndex))
		}
		if i > 0 && runs[i-1].Side == r.Side {
			return core.NewSequenceError(pos, fmt.Sprintf("runs %d and %d share side %s", i-1, i, r.Side))
		}
		for j, trial := range r.TrialIndices {
			if pos+j >= seq.Len() {
				return core.NewSequenceError(pos+j, "run extends past sequence end")
			}
			rec := seq.At(pos + j)
			if rec.TrialIndex != trial || rec.Side != r.Side {
				return core.NewSequenceError(pos+j, fmt.Sprintf("run %d does not match trial %d", i, rec.TrialIndex))
			}
		}
		pos += r.Length
	}
	if pos != seq.Len() {
		return core.NewSequenceError(pos, fmt.Sprintf("runs cover %d of %d trials", pos, seq.Len()))
	}
	return nil
}
