//go:build windows

package launcher

import "syscall"

const createNewProcessGroup = 0x00000200

func detachAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
