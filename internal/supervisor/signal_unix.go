//go:build !windows

package supervisor

import "syscall"

// terminate asks the bot to shut down. The child runs in its own session
// (its pgid equals its pid), so the negative-pid form reaches helpers it
// may have forked as well. Falls back to the single process when the group
// signal fails.
func terminate(pid int) error {
	if err := syscall.Kill(-pid, syscall.SIGTERM); err == nil {
		return nil
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}

// kill ends the bot unconditionally.
func kill(pid int) error {
	if err := syscall.Kill(-pid, syscall.SIGKILL); err == nil {
		return nil
	}
	return syscall.Kill(pid, syscall.SIGKILL)
}
