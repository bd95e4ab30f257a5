package metrics

import "leavingrate/domain/choice"

// ExitPoint is the empirical hazard at one within-run position
type ExitPoint struct {
	Position        int     `json:"position"`         // 1-based
	ExitProbability float64 `json:"exit_probability"` // NExited / NTotal
	NSurvived       int     `json:"n_survived"`       // runs that continued past Position
	NExited         int     `json:"n_exited"`         // runs with length == Position
	NTotal          int     `json:"n_total"`          // runs with length >= Position
	LowSupport      bool    `json:"low_support"`      // NTotal below the configured minimum
}

// ExitProfile is the discrete hazard function of one side's runs
type ExitProfile struct {
	Side   choice.Side `json:"side"`
	Runs   int         `json:"runs"`
	Points []ExitPoint `json:"points"` // positions 1..max run length, in order
}

// MaxPosition returns the longest run length on the side, 0 if none
func (p ExitProfile) MaxPosition() int {
	return len(p.Points)
}

// IsEmpty reports whether the side had no runs
func (p ExitProfile) IsEmpty() bool {
	return len(p.Points) == 0
}

// At returns the point for a 1-based position
func (p ExitProfile) At(position int) (ExitPoint, bool) {
	if position < 1 || position > len(p.Points) {
		return ExitPoint{}, false
	}
	return p.Points[position-1], true
}

// Head returns at most n leading points
func (p ExitProfile) Head(n int) []ExitPoint {
	if n <= 0 || n >= len(p.Points) {
		return p.Points
	}
	return p.Points[:n]
}
