// Package proc enumerates and terminates operating system processes.
//
// The Provider interface hides the platform: Linux reads /proc, other Unix
// systems parse ps output, and Windows shells out to tasklist and taskkill.
package proc

import (
	"strings"
)

// Info describes one entry of the process table.
type Info struct {
	PID  int
	PPID int
	Name string
}

// Provider lists processes and kills process trees.
type Provider interface {
	// ListProcesses returns a snapshot of the process table.
	ListProcesses() ([]Info, error)

	// KillTree forcibly terminates pid and every process descended from it.
	// A process that has already exited is not an error.
	KillTree(pid int) error
}

// Descendants returns the pids of every transitive child of pid in table,
// parents before children. pid itself is not included.
func Descendants(table []Info, pid int) []int {
	children := make(map[int][]int, len(table))
	for _, p := range table {
		if p.PID == p.PPID {
			continue
		}
		children[p.PPID] = append(children[p.PPID], p.PID)
	}

	var out []int
	seen := map[int]bool{pid: true}
	queue := []int{pid}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// MatchName reports whether the process name matches any candidate.
// Matching is case-insensitive and ignores a directory prefix and a
// trailing ".exe".
func MatchName(name string, candidates []string) bool {
	base := baseName(name)
	if base == "" {
		return false
	}
	for _, c := range candidates {
		if strings.EqualFold(base, baseName(c)) {
			return true
		}
	}
	return false
}

func baseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if len(name) > 4 && strings.EqualFold(name[len(name)-4:], ".exe") {
		name = name[:len(name)-4]
	}
	return name
}
