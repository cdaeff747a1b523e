//go:build windows

package probe

import (
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// StartUnix returns the process start time as Unix seconds, or 0 when it
// cannot be determined.
func StartUnix(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	gp, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return 0
	}
	ms, err := gp.CreateTime()
	if err != nil || ms <= 0 {
		return 0
	}
	return ms / 1000
}
