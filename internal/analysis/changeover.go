package analysis

import "leavingrate/domain/choice"

// CountChangeovers counts adjacent trial pairs whose sides differ
func CountChangeovers(seq choice.Sequence) int {
	n := 0
	for i := 1; i < seq.Len(); i++ {
		if seq.At(i).Side != seq.At(i-1).Side {
			n++
		}
	}
	return n
}

// ChangeoversFromRuns is len(runs)-1, or 0 for no runs
func ChangeoversFromRuns(runs []choice.Run) int {
	if len(runs) == 0 {
		return 0
	}
	return len(runs) - 1
}
