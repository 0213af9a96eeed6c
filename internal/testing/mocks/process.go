// Package mocks provides shared test doubles for crucible packages.
package mocks

import (
	"sync"
	"time"

	"github.com/AndreyAkinshin/crucible/internal/model"
)

// KilledExitCode is the exit code a fake process reports after KillTree.
const KilledExitCode = 137

// Process implements runner.Process for testing.
// It stays running until Exit is called, an auto-exit timer fires, or a
// Provider kills it.
type Process struct {
	pid  int
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	exitCode int
	err      error
	timer    *time.Timer
	tests    *model.TestCounts
}

// NewProcess creates a running fake process with the given pid.
func NewProcess(pid int) *Process {
	return &Process{pid: pid, done: make(chan struct{})}
}

// ExitAfter makes the process exit with code once d has elapsed.
func (p *Process) ExitAfter(d time.Duration, code int) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timer = time.AfterFunc(d, func() { p.Exit(code) })
	return p
}

// WithTests makes the process report test counts from its output.
func (p *Process) WithTests(c model.TestCounts) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tests = &c
	return p
}

// Tests implements runner.TestCounter.
func (p *Process) Tests() (model.TestCounts, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tests == nil {
		return model.TestCounts{}, false
	}
	return *p.tests, true
}

func (p *Process) PID() int              { return p.pid }
func (p *Process) Done() <-chan struct{} { return p.done }

func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Exit terminates the process with code. Only the first call has an effect.
func (p *Process) Exit(code int) {
	p.finish(code, nil)
}

// Fail terminates the process with a wait error.
func (p *Process) Fail(err error) {
	p.finish(-1, err)
}

func (p *Process) finish(code int, err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.exitCode = code
		p.err = err
		if p.timer != nil {
			p.timer.Stop()
		}
		p.mu.Unlock()
		close(p.done)
	})
}

// Exited reports whether the process has terminated.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
