package choice

import (
	"fmt"
	"strconv"
	"strings"

	"leavingrate/domain/core"
)

// Side is one of the two response options
type Side int

const (
	SideUnknown Side = 0
	SideA       Side = 1 // label "1", left sample
	SideB       Side = 2 // label "2", right sample
)

// Sides lists the valid sides in report order
var Sides = []Side{SideA, SideB}

// String returns the numeric label used in input files
func (s Side) String() string {
	switch s {
	case SideA:
		return "1"
	case SideB:
		return "2"
	default:
		return "?"
	}
}

// Name returns a human readable side name
func (s Side) Name() string {
	switch s {
	case SideA:
		return "Side 1 (left)"
	case SideB:
		return "Side 2 (right)"
	default:
		return "unknown side"
	}
}

// Valid reports whether s is SideA or SideB
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Other returns the opposite side
func (s Side) Other() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideUnknown
	}
}

// ParseSide accepts numeric labels equal to exactly 1 or 2 ("1", "2", "1.0").
// Any other value, including text variants, is rejected rather than coerced.
func ParseSide(raw string) (Side, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SideUnknown, fmt.Errorf("%w: empty label", core.ErrInvalidSide)
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return SideUnknown, fmt.Errorf("%w: %q", core.ErrInvalidSide, raw)
	}
	switch v {
	case 1:
		return SideA, nil
	case 2:
		return SideB, nil
	}
	return SideUnknown, fmt.Errorf("%w: %q", core.ErrInvalidSide, raw)
}

// Area-of-interest labels used by fixation exports
const (
	AreaLeftSample       = "LeftSample"
	AreaRightSample      = "RightSample"
	AreaRightSampleAlias = "Right_Sample"
)

// ParseAreaLabel maps an interest-area label to a side. "Right_Sample" is
// normalized to "RightSample"; every other label is rejected.
func ParseAreaLabel(raw string) (Side, error) {
	switch strings.TrimSpace(raw) {
	case AreaLeftSample:
		return SideA, nil
	case AreaRightSample, AreaRightSampleAlias:
		return SideB, nil
	}
	return SideUnknown, fmt.Errorf("%w: area label %q", core.ErrInvalidSide, raw)
}
