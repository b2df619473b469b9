package model

import "strings"

// Line identifies an insurance product category.
type Line string

const (
	LineMotor Line = "Motor"
	LineLife  Line = "Life"
)

// ParseLine returns the canonical spelling of a known line, matching
// case-insensitively. Unknown values come back trimmed but otherwise as given,
// with ok=false.
func ParseLine(s string) (Line, bool) {
	v := strings.TrimSpace(s)
	switch {
	case strings.EqualFold(v, string(LineMotor)):
		return LineMotor, true
	case strings.EqualFold(v, string(LineLife)):
		return LineLife, true
	}
	return Line(v), false
}

func (l Line) String() string { return string(l) }
