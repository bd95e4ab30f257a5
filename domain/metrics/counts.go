package metrics

import "leavingrate/domain/choice"

// Counts holds the raw, summable tallies of a session or group of sessions.
// Every derived ratio is recomputed from Counts; ratios are never averaged.
type Counts struct {
	TotalTrials     int `json:"total_trials" db:"total_trials"`
	ChoicesA        int `json:"n_a" db:"n_a"`
	ChoicesB        int `json:"n_b" db:"n_b"`
	ReinforcementsA int `json:"r_a" db:"r_a"`
	ReinforcementsB int `json:"r_b" db:"r_b"`
	RunsA           int `json:"runs_a" db:"runs_a"`
	RunsB           int `json:"runs_b" db:"runs_b"`
	Changeovers     int `json:"num_changeovers" db:"num_changeovers"`
}

// Add returns the element-wise sum of c and o
func (c Counts) Add(o Counts) Counts {
	return Counts{
		TotalTrials:     c.TotalTrials + o.TotalTrials,
		ChoicesA:        c.ChoicesA + o.ChoicesA,
		ChoicesB:        c.ChoicesB + o.ChoicesB,
		ReinforcementsA: c.ReinforcementsA + o.ReinforcementsA,
		ReinforcementsB: c.ReinforcementsB + o.ReinforcementsB,
		RunsA:           c.RunsA + o.RunsA,
		RunsB:           c.RunsB + o.RunsB,
		Changeovers:     c.Changeovers + o.Changeovers,
	}
}

// Choices returns N for side
func (c Counts) Choices(side choice.Side) int {
	switch side {
	case choice.SideA:
		return c.ChoicesA
	case choice.SideB:
		return c.ChoicesB
	}
	return 0
}

// Reinforcements returns R for side
func (c Counts) Reinforcements(side choice.Side) int {
	switch side {
	case choice.SideA:
		return c.ReinforcementsA
	case choice.SideB:
		return c.ReinforcementsB
	}
	return 0
}

// Runs returns the run count for side
func (c Counts) Runs(side choice.Side) int {
	switch side {
	case choice.SideA:
		return c.RunsA
	case choice.SideB:
		return c.RunsB
	}
	return 0
}
