//go:build unix && !linux

package integration

import "syscall"

// alive reports whether pid exists. Zombies count as alive here.
func alive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
