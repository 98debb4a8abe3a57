//go:build unix && !linux

package sys

import "syscall"

func MaxListenerBacklog() int {
	return syscall.SOMAXCONN
}
