//go:build windows

package daemonctl

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
		HideWindow:    true,
	}
}

// Windows cannot deliver an interrupt to a detached process without a
// console, so stopping terminates it.
func interruptProcess(pid int) error {
	return killProcess(pid)
}
