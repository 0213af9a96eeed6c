package proc

import (
	"log/slog"
	"os"

	"github.com/AndreyAkinshin/crucible/internal/logging"
)

// Reaper kills stray processes left behind by earlier runs.
type Reaper struct {
	Provider Provider
	// Names lists the process names to reap, matched with MatchName.
	Names  []string
	Logger *slog.Logger
}

// Reap kills the tree of every process whose name matches Names and
// returns how many matches it tried to kill. The current process and its
// ancestors are never touched: killing an ancestor's tree would kill this
// process too. Failures are logged and otherwise ignored.
func (r *Reaper) Reap() int {
	if len(r.Names) == 0 || r.Provider == nil {
		return 0
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	table, err := r.Provider.ListProcesses()
	if err != nil {
		logger.Warn("reap_list_failed", "error", err)
		return 0
	}

	self := os.Getpid()
	protected := ancestors(table, self)
	protected[self] = true
	protected[os.Getppid()] = true

	killed := 0
	for _, p := range table {
		if p.PID <= 1 || !MatchName(p.Name, r.Names) {
			continue
		}
		if protected[p.PID] {
			logger.Debug("reap_skip", "pid", p.PID, "name", p.Name, "reason", "ancestor")
			continue
		}
		logger.Info("reap_kill", "pid", p.PID, "name", p.Name)
		if err := r.Provider.KillTree(p.PID); err != nil {
			logger.Warn("kill_tree_failed", "pid", p.PID, "error", err)
		}
		killed++
	}
	if killed > 0 {
		logger.Debug("reap_done", "killed", killed)
	}
	return killed
}

// ancestors returns the pids on the parent chain of pid in table.
func ancestors(table []Info, pid int) map[int]bool {
	parents := make(map[int]int, len(table))
	for _, p := range table {
		parents[p.PID] = p.PPID
	}
	seen := make(map[int]bool)
	for cur := parents[pid]; cur > 0 && !seen[cur]; cur = parents[cur] {
		seen[cur] = true
	}
	return seen
}
