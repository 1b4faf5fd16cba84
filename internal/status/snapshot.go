// internal/status/snapshot.go
package status

import "time"

// Snapshot is the device-level outcome of the most recent tick.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health              uint16
	SuccessCount        int
	TotalCount          int
	ConsecutiveFailures int
	LastPoll            time.Time
	LastSuccess         time.Time
}

// Next derives the snapshot that follows prev after a tick that read
// success of total segments at time at. No IO. No side effects.
func Next(prev Snapshot, success, total int, at time.Time) Snapshot {
	s := Snapshot{
		SuccessCount: success,
		TotalCount:   total,
		LastPoll:     at,
		LastSuccess:  prev.LastSuccess,
	}

	switch {
	case total > 0 && success == total:
		s.Health = HealthOK
	case success > 0:
		s.Health = HealthDegraded
	default:
		s.Health = HealthError
	}

	if success == 0 {
		s.ConsecutiveFailures = prev.ConsecutiveFailures + 1
	} else {
		s.LastSuccess = at
	}
	return s
}
