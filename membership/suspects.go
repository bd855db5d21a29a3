package membership

import (
	"time"

	"github.com/maxpoletaev/rollcall/internal/generic"
)

// Reason explains why a row is suspected to be dead.
type Reason int

const (
	// ReasonExpired means the row has not been refreshed within the timeout.
	ReasonExpired Reason = iota + 1
	// ReasonSuperseded means a newer incarnation of the same silo exists.
	ReasonSuperseded
)

func (r Reason) String() string {
	switch r {
	case ReasonExpired:
		return "expired"
	case ReasonSuperseded:
		return "superseded"
	default:
		return ""
	}
}

type Suspect struct {
	Row    Row
	Reason Reason
}

// FindSuspects returns the non-terminal rows that should be declared dead: those
// whose IAmAliveTime is older than the timeout, and those replaced by a newer
// live incarnation of the same silo. The result depends only on the rows and
// the time, so once a row is past the threshold it stays suspect for any later
// now until its status changes.
func FindSuspects(rows []Row, now time.Time, timeout time.Duration) []Suspect {
	latest := make(map[string]time.Time)

	for _, row := range rows {
		if row.Status.IsTerminal() || row.Expired(now, timeout) {
			continue
		}

		if start, ok := latest[row.SiloID]; !ok || row.StartTime.After(start) {
			latest[row.SiloID] = row.StartTime
		}
	}

	var suspects []Suspect

	for _, row := range rows {
		if row.Status.IsTerminal() {
			continue
		}

		switch {
		case row.Expired(now, timeout):
			suspects = append(suspects, Suspect{Row: row, Reason: ReasonExpired})
		case row.StartTime.Before(latest[row.SiloID]):
			suspects = append(suspects, Suspect{Row: row, Reason: ReasonSuperseded})
		}
	}

	return suspects
}

// ActiveMembers returns the rows that are active and have a fresh heartbeat.
func ActiveMembers(rows []Row, now time.Time, timeout time.Duration) []Row {
	return generic.Filter(rows, func(row Row) bool {
		return row.IsLive(now, timeout)
	})
}
