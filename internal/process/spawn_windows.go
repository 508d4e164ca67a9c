//go:build windows

package process

import "syscall"

const createNoWindow = 0x08000000

// spawnAttrs suppresses the extra console window Windows would otherwise
// open for a console-subsystem child.
func spawnAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNoWindow}
}
