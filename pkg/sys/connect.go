//go:build unix

package sys

import (
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

// Connect starts a non-blocking connect to addr.
// It reports inProgress when completion must be awaited on writability.
func (fd *Fd) Connect(addr netip.AddrPort) (inProgress bool, err error) {
	sa, saErr := AddrToSockaddr(addr)
	if saErr != nil {
		err = saErr
		return
	}
	switch connErr := unix.Connect(fd.sock, sa); connErr {
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		inProgress = true
	case nil, unix.EISCONN:
	default:
		err = os.NewSyscallError("connect", connErr)
	}
	return
}

// Connected reports whether a connect in progress has finished.
// Spurious readiness yields false without an error.
func (fd *Fd) Connected() (bool, error) {
	errno, err := fd.SocketError()
	if err != nil {
		return false, err
	}
	switch errno {
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		return false, nil
	case unix.EISCONN:
		return true, nil
	case 0:
		sa, peerErr := unix.Getpeername(fd.sock)
		if peerErr != nil {
			return false, nil
		}
		fd.raddr = SockaddrToAddr(sa)
		return true, nil
	default:
		return false, os.NewSyscallError("connect", errno)
	}
}
