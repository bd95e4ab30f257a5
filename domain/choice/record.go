package choice

// RawRecord is one input row as read from a session file, before validation.
// Present flags distinguish a missing cell from an empty string.
type RawRecord struct {
	TrialIndex       string `json:"trial_index"`
	Side             string `json:"side"`
	Reinforcement    string `json:"reinforcement"`
	HasTrialIndex    bool   `json:"has_trial_index"`
	HasSide          bool   `json:"has_side"`
	HasReinforcement bool   `json:"has_reinforcement"`
}

// Complete reports whether all three fields are present and non-blank
func (r RawRecord) Complete() bool {
	return r.HasTrialIndex && r.HasSide && r.HasReinforcement &&
		!isBlank(r.TrialIndex) && !isBlank(r.Side) && !isBlank(r.Reinforcement)
}

// Record is one experimental trial after normalization (ChoiceRecord)
type Record struct {
	TrialIndex int64 `json:"trial_index"` // unique within a session, defines order
	Side       Side  `json:"side"`
	Reinforced bool  `json:"reinforced"` // any reward signal in the trial
}

// NewRecord constructs a record, rejecting invalid sides
func NewRecord(trialIndex int64, side Side, reinforced bool) (Record, error) {
	if !side.Valid() {
		return Record{}, errInvalidRecordSide(trialIndex, side)
	}
	return Record{TrialIndex: trialIndex, Side: side, Reinforced: reinforced}, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\r' && r != '\n' {
			return false
		}
	}
	return true
}
