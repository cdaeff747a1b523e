//go:build windows

package supervisor

import "os"

// Windows has no SIGTERM; both paths end the process outright.
func terminate(pid int) error { return kill(pid) }

func kill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
