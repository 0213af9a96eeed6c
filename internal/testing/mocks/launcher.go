package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/AndreyAkinshin/crucible/internal/model"
	"github.com/AndreyAkinshin/crucible/internal/runner"
)

// Behavior scripts what a fake task process does once started.
type Behavior struct {
	// ExitCode is reported when the process exits on its own.
	ExitCode int
	// After is how long the process runs before exiting.
	After time.Duration
	// Hang keeps the process running until it is killed.
	Hang bool
	// SpawnErr makes Start fail instead of starting a process.
	SpawnErr error
	// Children adds fake descendants of the task process to the table.
	Children []string
	// Tests are the test counts the process reports.
	Tests *model.TestCounts
}

// ExitWith returns a behavior that exits with code after d.
func ExitWith(code int, d time.Duration) Behavior {
	return Behavior{ExitCode: code, After: d}
}

// Hang returns a behavior that never exits on its own.
func Hang() Behavior {
	return Behavior{Hang: true}
}

// SpawnFailure returns a behavior whose start fails with err.
func SpawnFailure(err error) Behavior {
	return Behavior{SpawnErr: err}
}

// Launcher implements runner.Launcher with scripted behaviors per task.
// Started processes are tracked by the Provider so tree kills reach them.
// Use NewLauncher() to create instances with a fluent builder API.
type Launcher struct {
	provider *Provider
	rootPID  int

	mu        sync.Mutex
	behaviors map[string]Behavior
	fallback  Behavior
	nextPID   int
	started   []model.TaskSpec
	processes []*Process
	maxActive int
	onStart   func(task model.TaskSpec)
}

var _ runner.Launcher = (*Launcher)(nil)

// NewLauncher creates a launcher whose processes live in provider's table
// as children of rootPID. Unscripted tasks exit 0 immediately.
func NewLauncher(provider *Provider, rootPID int) *Launcher {
	return &Launcher{
		provider:  provider,
		rootPID:   rootPID,
		behaviors: make(map[string]Behavior),
		nextPID:   1000,
	}
}

// On scripts the behavior of every start of the named task.
func (l *Launcher) On(task string, b Behavior) *Launcher {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.behaviors[task] = b
	return l
}

// Default sets the behavior for tasks without a script.
func (l *Launcher) Default(b Behavior) *Launcher {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fallback = b
	return l
}

// OnStart registers a hook called synchronously at each Start.
func (l *Launcher) OnStart(fn func(task model.TaskSpec)) *Launcher {
	l.onStart = fn
	return l
}

func (l *Launcher) Start(_ context.Context, task model.TaskSpec) (runner.Process, error) {
	l.mu.Lock()
	b, ok := l.behaviors[task.Name]
	if !ok {
		b = l.fallback
	}
	l.started = append(l.started, task)
	hook := l.onStart
	if b.SpawnErr != nil {
		l.mu.Unlock()
		if hook != nil {
			hook(task)
		}
		return nil, b.SpawnErr
	}

	active := 1
	for _, prev := range l.processes {
		if !prev.Exited() {
			active++
		}
	}
	if active > l.maxActive {
		l.maxActive = active
	}
	l.nextPID++
	p := NewProcess(l.nextPID)
	if b.Tests != nil {
		p.WithTests(*b.Tests)
	}
	l.processes = append(l.processes, p)
	var childPIDs []int
	for range b.Children {
		l.nextPID++
		childPIDs = append(childPIDs, l.nextPID)
	}
	l.mu.Unlock()

	if l.provider != nil {
		l.provider.Track(p, l.rootPID, task.Name)
		for i, name := range b.Children {
			l.provider.Track(NewProcess(childPIDs[i]), p.PID(), name)
		}
	}
	if hook != nil {
		hook(task)
	}

	if !b.Hang {
		p.ExitAfter(b.After, b.ExitCode)
	}
	return p, nil
}

// Started returns the tasks passed to Start, in call order.
func (l *Launcher) Started() []model.TaskSpec {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.TaskSpec(nil), l.started...)
}

// Processes returns the processes started so far.
func (l *Launcher) Processes() []*Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Process(nil), l.processes...)
}

// MaxConcurrent returns the highest number of processes alive at once.
func (l *Launcher) MaxConcurrent() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxActive
}
