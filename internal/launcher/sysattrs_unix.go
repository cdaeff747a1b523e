//go:build !windows

package launcher

import "syscall"

// detachAttrs puts the child in its own session so that closing the terminal
// that invoked gojoctl does not deliver SIGHUP to the bot.
func detachAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
