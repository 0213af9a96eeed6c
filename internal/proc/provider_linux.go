//go:build linux

package proc

import (
	"fmt"

	"github.com/prometheus/procfs"
)

type linuxProvider struct {
	mountPoint string
}

// System returns the provider for the running platform.
func System() Provider {
	return &linuxProvider{mountPoint: procfs.DefaultMountPoint}
}

// ListProcesses reads the process table from procfs. Processes that exit
// while the table is being read are skipped.
func (p *linuxProvider) ListProcesses() ([]Info, error) {
	fs, err := procfs.NewFS(p.mountPoint)
	if err != nil {
		return nil, fmt.Errorf("open procfs: %w", err)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	table := make([]Info, 0, len(procs))
	for _, pr := range procs {
		stat, err := pr.Stat()
		if err != nil {
			continue
		}
		table = append(table, Info{PID: stat.PID, PPID: stat.PPID, Name: stat.Comm})
	}
	return table, nil
}

func (p *linuxProvider) KillTree(pid int) error {
	return killTree(p, pid)
}
