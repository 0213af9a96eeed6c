//go:build unix && !linux

package proc

import (
	"bytes"
	"fmt"
	"os/exec"
)

type psProvider struct{}

// System returns the provider for the running platform.
func System() Provider {
	return psProvider{}
}

func (psProvider) ListProcesses() ([]Info, error) {
	out, err := exec.Command("ps", "-axo", "pid=,ppid=,comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("run ps: %w", err)
	}
	return parsePS(bytes.NewReader(out))
}

func (p psProvider) KillTree(pid int) error {
	return killTree(p, pid)
}
