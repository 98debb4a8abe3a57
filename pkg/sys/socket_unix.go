//go:build unix && !linux

package sys

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// NewSocket opens a non-blocking close-on-exec socket.
func NewSocket(family int, sotype int, protocol int) (sock int, err error) {
	return newSocketLocked(family, sotype, protocol)
}

// Accept takes one pending connection off the listening socket.
// The accepted socket is non-blocking and close-on-exec.
func Accept(fd int) (nfd int, sa unix.Sockaddr, err error) {
	syscall.ForkLock.RLock()
	nfd, sa, err = unix.Accept(fd)
	if err == nil {
		unix.CloseOnExec(nfd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return
	}
	if err = unix.SetNonblock(nfd, true); err != nil {
		_ = unix.Close(nfd)
		nfd = -1
		return
	}
	return
}
