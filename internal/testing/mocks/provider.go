package mocks

import (
	"sync"

	"github.com/AndreyAkinshin/crucible/internal/proc"
)

// Provider implements proc.Provider over an in-memory process table.
// Use NewProvider() to create instances with a fluent builder API.
type Provider struct {
	mu        sync.Mutex
	table     []proc.Info
	processes map[int]*Process
	listErr   error
	killErr   error
	stubborn  bool
	killed    []int
	lists     int
}

// NewProvider creates an empty fake provider.
func NewProvider() *Provider {
	return &Provider{processes: make(map[int]*Process)}
}

// WithProcess adds an entry to the process table.
func (m *Provider) WithProcess(pid, ppid int, name string) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = append(m.table, proc.Info{PID: pid, PPID: ppid, Name: name})
	return m
}

// WithListError makes ListProcesses fail.
func (m *Provider) WithListError(err error) *Provider {
	m.listErr = err
	return m
}

// WithKillError makes KillTree return err (after still killing the tree).
func (m *Provider) WithKillError(err error) *Provider {
	m.killErr = err
	return m
}

// Stubborn makes KillTree record the call without terminating anything.
func (m *Provider) Stubborn() *Provider {
	m.stubborn = true
	return m
}

// Track registers a fake process so that killing its pid, or the pid of
// any ancestor in the table, terminates it.
func (m *Provider) Track(p *Process, ppid int, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processes[p.PID()] = p
	m.table = append(m.table, proc.Info{PID: p.PID(), PPID: ppid, Name: name})
}

func (m *Provider) ListProcesses() ([]proc.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]proc.Info(nil), m.table...), nil
}

// KillTree removes pid and its descendants from the table and terminates
// every tracked process among them with KilledExitCode.
func (m *Provider) KillTree(pid int) error {
	m.mu.Lock()
	m.killed = append(m.killed, pid)
	if m.stubborn {
		m.mu.Unlock()
		return m.killErr
	}

	victims := map[int]bool{pid: true}
	for _, d := range proc.Descendants(m.table, pid) {
		victims[d] = true
	}
	var kept []proc.Info
	var doomed []*Process
	for _, info := range m.table {
		if victims[info.PID] {
			if p, ok := m.processes[info.PID]; ok {
				doomed = append(doomed, p)
				delete(m.processes, info.PID)
			}
			continue
		}
		kept = append(kept, info)
	}
	if p, ok := m.processes[pid]; ok {
		doomed = append(doomed, p)
		delete(m.processes, pid)
	}
	m.table = kept
	m.mu.Unlock()

	for _, p := range doomed {
		p.Exit(KilledExitCode)
	}
	return m.killErr
}

// Killed returns the pids passed to KillTree, in call order.
func (m *Provider) Killed() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.killed...)
}

// ListCount returns how many times ListProcesses was called.
func (m *Provider) ListCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

// Running reports whether pid is still in the process table.
func (m *Provider) Running(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.table {
		if info.PID == pid {
			return true
		}
	}
	return false
}
