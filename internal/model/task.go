// Package model provides the data types shared by the runner, watchdog,
// report and controller packages. Keeping them here breaks the import cycle
// between report (which renders results) and controller (which produces them).
package model

import (
	"fmt"
	"time"
)

// Mode selects the invocation shape for a task.
type Mode int

const (
	// ModeVerify runs the module's full test suite.
	ModeVerify Mode = iota
	// ModeCheckOnly runs a compile-only verification.
	ModeCheckOnly
)

func (m Mode) String() string {
	switch m {
	case ModeVerify:
		return "verify"
	case ModeCheckOnly:
		return "check"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// TaskSpec identifies one module to process and how to process it.
type TaskSpec struct {
	Name string
	Mode Mode
}

// Status is the outcome of one attempted task.
type Status int

const (
	StatusPass Status = iota
	StatusFail
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusFail:
		return "fail"
	case StatusTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// RunResult records the outcome of one attempted task.
// ExitCode is only meaningful when Status is StatusFail.
type RunResult struct {
	Task     TaskSpec
	Status   Status
	ExitCode int
	Elapsed  time.Duration
	// Tests holds the test counts found in the task's output, if any.
	Tests *TestCounts
}

// TestCounts summarizes the test results a task printed.
type TestCounts struct {
	Passed  int
	Failed  int
	Ignored int
}

// Total returns the number of tests that reported a result.
func (c TestCounts) Total() int {
	return c.Passed + c.Failed + c.Ignored
}

func (c TestCounts) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d ignored", c.Passed, c.Failed, c.Ignored)
}

// Seconds returns the elapsed wall-clock time in seconds.
func (r RunResult) Seconds() float64 {
	return r.Elapsed.Seconds()
}

// Passed reports whether the task passed.
func (r RunResult) Passed() bool {
	return r.Status == StatusPass
}

// StatusLabel renders the status with its exit code for failures,
// e.g. "pass", "fail(101)", "timeout".
func (r RunResult) StatusLabel() string {
	if r.Status == StatusFail {
		return fmt.Sprintf("fail(%d)", r.ExitCode)
	}
	return r.Status.String()
}
