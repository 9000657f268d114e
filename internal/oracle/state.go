package oracle

import "fmt"

type State int

const (
	StateIdle State = iota
	StateStarting
	StatePolling
	StateResolving
	StatePublishing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePolling:
		return "polling"
	case StateResolving:
		return "resolving"
	case StatePublishing:
		return "publishing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RoundError is returned when a round fails. State is where it was when the error happened.
type RoundError struct {
	RoundIndex int
	RoundID    uint64
	State      State
	Err        error
}

func (e *RoundError) Error() string {
	if e.RoundID == 0 {
		return fmt.Sprintf("round #%d %s: %v", e.RoundIndex, e.State, e.Err)
	}
	return fmt.Sprintf("round #%d (id %d) %s: %v", e.RoundIndex, e.RoundID, e.State, e.Err)
}

func (e *RoundError) Unwrap() error { return e.Err }
