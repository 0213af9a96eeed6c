//go:build windows

package proc

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
)

type windowsProvider struct{}

// System returns the provider for the running platform.
func System() Provider {
	return windowsProvider{}
}

func (windowsProvider) ListProcesses() ([]Info, error) {
	out, err := exec.Command("tasklist", "/FO", "CSV", "/NH").Output()
	if err != nil {
		return nil, fmt.Errorf("run tasklist: %w", err)
	}
	return parseTasklist(bytes.NewReader(out))
}

// taskkillNotFound is the exit status taskkill uses when the pid is gone.
const taskkillNotFound = 128

func (windowsProvider) KillTree(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to kill pid %d", pid)
	}
	err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == taskkillNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("taskkill %d: %w", pid, err)
	}
	return nil
}

// SetProcessGroup starts cmd in a new process group. taskkill /T walks the
// tree by parent pid, so the group is only used for console signals.
func SetProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}
