//go:build unix

package proc

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
)

// SetProcessGroup makes cmd start in a new process group led by the child,
// so the whole group can be signalled with a negative pid.
func SetProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killTree kills the process group led by pid, then pid and each of its
// descendants one by one, since a descendant may have moved to another
// group.
func killTree(p Provider, pid int) error {
	if pid <= 1 {
		return fmt.Errorf("refusing to kill pid %d", pid)
	}

	var errs []error
	// Snapshot before signalling: once the root dies its children are
	// reparented and no longer traceable.
	table, err := p.ListProcesses()
	if err != nil {
		errs = append(errs, err)
	}
	victims := append([]int{pid}, Descendants(table, pid)...)

	if err := sigkill(-pid); err != nil {
		errs = append(errs, err)
	}
	for _, v := range victims {
		if err := sigkill(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sigkill(pid int) error {
	err := syscall.Kill(pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return fmt.Errorf("kill %d: %w", pid, err)
}
