package membership

import "fmt"

// Status is the lifecycle state of a membership row. A row only moves forward:
// Joining → Active → {ShuttingDown, Dead}. Restarted silos get a new row.
type Status int

const (
	StatusJoining Status = iota + 1
	StatusActive
	StatusShuttingDown
	StatusDead
)

func (s Status) String() string {
	switch s {
	case StatusJoining:
		return "joining"
	case StatusActive:
		return "active"
	case StatusShuttingDown:
		return "shutting_down"
	case StatusDead:
		return "dead"
	default:
		return ""
	}
}

// IsTerminal returns true for statuses a row can never leave.
func (s Status) IsTerminal() bool {
	return s == StatusShuttingDown || s == StatusDead
}

// ParseStatus is the inverse of Status.String. It is used by the SQL backends,
// which store the status as text.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "joining":
		return StatusJoining, nil
	case "active":
		return StatusActive, nil
	case "shutting_down":
		return StatusShuttingDown, nil
	case "dead":
		return StatusDead, nil
	default:
		return 0, fmt.Errorf("unknown status: %q", s)
	}
}
