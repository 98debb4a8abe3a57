//go:build linux

package sys

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// NewSocket opens a non-blocking close-on-exec socket.
func NewSocket(family int, sotype int, protocol int) (sock int, err error) {
	sock, err = unix.Socket(family, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, protocol)
	if err == nil {
		return
	}
	if !errors.Is(err, unix.EPROTONOSUPPORT) && !errors.Is(err, unix.EINVAL) {
		err = os.NewSyscallError("socket", err)
		return
	}
	return newSocketLocked(family, sotype, protocol)
}

// Accept takes one pending connection off the listening socket.
// The accepted socket is non-blocking and close-on-exec.
func Accept(fd int) (nfd int, sa unix.Sockaddr, err error) {
	return unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
}
