package controller

import "fmt"

// State is a phase of a run.
type State int

const (
	StateIdle State = iota
	StateReaping
	StateNormalizing
	StateRunningTask
	StatePassed
	StateFailed
	StateTimedOut
	StateReporting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReaping:
		return "reaping"
	case StateNormalizing:
		return "normalizing"
	case StateRunningTask:
		return "running_task"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
