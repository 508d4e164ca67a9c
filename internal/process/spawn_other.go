//go:build !windows

package process

import "syscall"

func spawnAttrs() *syscall.SysProcAttr { return nil }
