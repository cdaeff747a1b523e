//go:build windows

package probe

import (
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Alive reports whether a process with pid exists.
func (p Probe) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := gopsproc.PidExists(int32(pid))
	return err == nil && ok
}
