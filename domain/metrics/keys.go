package metrics

import (
	"fmt"

	"leavingrate/domain/core"
)

// RecordType distinguishes the two eye-tracking export kinds
type RecordType string

const (
	RecordFixation RecordType = "F"
	RecordSaccade  RecordType = "S"
)

// Label returns the plural name used in reports
func (t RecordType) Label() string {
	switch t {
	case RecordFixation:
		return "Fixations"
	case RecordSaccade:
		return "Saccades"
	default:
		return string(t)
	}
}

// SessionKey identifies one session file, parsed from its name. The
// participant, condition and session keep the digits as written, so P01 and
// P1 are different participants.
type SessionKey struct {
	RecordType  RecordType         `json:"record_type"`
	Participant core.ParticipantID `json:"participant"`
	Condition   core.ConditionID   `json:"condition"`
	Session     core.SessionID     `json:"session"`
	Option      int                `json:"option"`
}

// Group drops the session and option, keeping the aggregation key
func (k SessionKey) Group() GroupKey {
	return GroupKey{Participant: k.Participant, Condition: k.Condition}
}

// String renders the key as P<p> C<c> S<s>
func (k SessionKey) String() string {
	return fmt.Sprintf("P%s C%s S%s", k.Participant, k.Condition, k.Session)
}

// Less orders keys numerically by participant, condition, session, then
// by option and type
func (k SessionKey) Less(o SessionKey) bool {
	if c := k.Group().compare(o.Group()); c != 0 {
		return c < 0
	}
	if c := core.CompareNumeric(string(k.Session), string(o.Session)); c != 0 {
		return c < 0
	}
	if k.Option != o.Option {
		return k.Option < o.Option
	}
	return k.RecordType < o.RecordType
}

// GroupKey is the (participant, condition) aggregation key
type GroupKey struct {
	Participant core.ParticipantID `json:"participant"`
	Condition   core.ConditionID   `json:"condition"`
}

// String renders the key as P<p> C<c>
func (k GroupKey) String() string {
	return fmt.Sprintf("P%s C%s", k.Participant, k.Condition)
}

// Less orders keys numerically by participant then condition
func (k GroupKey) Less(o GroupKey) bool {
	return k.compare(o) < 0
}

func (k GroupKey) compare(o GroupKey) int {
	if c := core.CompareNumeric(string(k.Participant), string(o.Participant)); c != 0 {
		return c
	}
	return core.CompareNumeric(string(k.Condition), string(o.Condition))
}
