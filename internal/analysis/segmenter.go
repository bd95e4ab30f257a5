package analysis

import "leavingrate/domain/choice"

// Segment partitions seq into maximal runs of identical sides in one
// left-to-right pass. An empty sequence yields an empty, non-nil slice.
func Segment(seq choice.Sequence) []choice.Run {
	runs := make([]choice.Run, 0)
	for i := 0; i < seq.Len(); i++ {
		rec := seq.At(i)
		if n := len(runs); n > 0 && runs[n-1].Side == rec.Side {
			runs[n-1].Length++
			runs[n-1].TrialIndices = append(runs[n-1].TrialIndices, rec.TrialIndex)
			continue
		}
		runs = append(runs, choice.Run{
			Side:         rec.Side,
			StartIndex:   i,
			Length:       1,
			TrialIndices: []int64{rec.TrialIndex},
		})
	}
	return runs
}

// RunLengths returns the lengths of the runs on side, in order
func RunLengths(runs []choice.Run, side choice.Side) []int {
	var lengths []int
	for _, r := range runs {
		if r.Side == side {
			lengths = append(lengths, r.Length)
		}
	}
	return lengths
}
