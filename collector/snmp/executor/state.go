// SPDX-License-Identifier: GPL-3.0-or-later

package executor

type State uint8

const (
	Idle State = iota
	FetchingScalars
	FetchingNext
	FetchingBulk
	Resolving
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FetchingScalars:
		return "fetching scalars"
	case FetchingNext:
		return "fetching tables"
	case FetchingBulk:
		return "fetching tables in bulk"
	case Resolving:
		return "resolving"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Status is the availability of the device as seen by one cycle.
type Status uint8

const (
	StatusOK Status = iota
	StatusWarning
	StatusCritical
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	default:
		return "CRITICAL"
	}
}

// Worst returns the more severe of the two.
func (s Status) Worst(other Status) Status {
	return max(s, other)
}

func statusOf(resolved, failed bool) Status {
	switch {
	case !failed:
		return StatusOK
	case resolved:
		return StatusWarning
	default:
		return StatusCritical
	}
}
