//go:build unix

package sys

import (
	"net"
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

type ListenOptions struct {
	Backlog   int
	ReuseAddr bool
	Ipv6only  bool
}

// ListenTCP opens a non-blocking TCP listening socket bound to addr.
// A zero Backlog uses MaxListenerBacklog.
func ListenTCP(addr netip.AddrPort, options ListenOptions) (fd *Fd, err error) {
	family := Family(addr.Addr())
	sock, sockErr := NewSocket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if sockErr != nil {
		err = sockErr
		return
	}
	fd = NewFd(sock, family, unix.SOCK_STREAM)
	// ipv6
	if err = fd.SetIpv6only(options.Ipv6only); err != nil {
		_ = fd.Close()
		return
	}
	// reuse addr
	if err = fd.SetReuseAddr(options.ReuseAddr); err != nil {
		_ = fd.Close()
		return
	}
	// bind
	if err = fd.Bind(addr); err != nil {
		_ = fd.Close()
		return
	}
	// listen
	backlog := options.Backlog
	if backlog <= 0 {
		backlog = MaxListenerBacklog()
	}
	if err = unix.Listen(sock, backlog); err != nil {
		_ = fd.Close()
		err = os.NewSyscallError("listen", err)
		return
	}
	// set socket addr
	if loadErr := fd.LoadLocalAddr(); loadErr != nil {
		fd.SetLocalAddr(net.TCPAddrFromAddrPort(addr))
	}
	return
}
