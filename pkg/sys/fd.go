//go:build unix

package sys

import (
	"net"
	"net/netip"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// defaultTCPKeepAliveIdle matches the net package default, see go.dev/issue/31510.
const defaultTCPKeepAliveIdle = 15 * time.Second

func NewFd(sock int, family int, sotype int) *Fd {
	return &Fd{
		sock:   sock,
		family: family,
		sotype: sotype,
	}
}

// Fd is a socket descriptor with its cached addresses.
// It does not own the descriptor's lifetime; callers close it.
type Fd struct {
	sock   int
	family int
	sotype int
	laddr  net.Addr
	raddr  net.Addr
}

func (fd *Fd) Socket() int {
	return fd.sock
}

func (fd *Fd) Family() int {
	return fd.family
}

func (fd *Fd) LocalAddr() net.Addr {
	return fd.laddr
}

func (fd *Fd) SetLocalAddr(addr net.Addr) {
	fd.laddr = addr
}

func (fd *Fd) LoadLocalAddr() (err error) {
	sa, saErr := unix.Getsockname(fd.sock)
	if saErr != nil {
		err = os.NewSyscallError("getsockname", saErr)
		return
	}
	fd.laddr = SockaddrToAddr(sa)
	return
}

func (fd *Fd) RemoteAddr() net.Addr {
	return fd.raddr
}

func (fd *Fd) SetRemoteAddr(addr net.Addr) {
	fd.raddr = addr
}

func (fd *Fd) LoadRemoteAddr() (err error) {
	sa, saErr := unix.Getpeername(fd.sock)
	if saErr != nil {
		err = os.NewSyscallError("getpeername", saErr)
		return
	}
	fd.raddr = SockaddrToAddr(sa)
	return
}

func (fd *Fd) SetIpv6only(ipv6only bool) error {
	if fd.family != unix.AF_INET6 {
		return nil
	}
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd.sock, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, boolint(ipv6only)))
}

func (fd *Fd) SetReuseAddr(reuse bool) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd.sock, unix.SOL_SOCKET, unix.SO_REUSEADDR, boolint(reuse)))
}

func (fd *Fd) Bind(addr netip.AddrPort) error {
	sa, saErr := AddrToSockaddr(addr)
	if saErr != nil {
		return saErr
	}
	return os.NewSyscallError("bind", unix.Bind(fd.sock, sa))
}

func (fd *Fd) SetNoDelay(noDelay bool) error {
	if fd.sotype != unix.SOCK_STREAM {
		return nil
	}
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd.sock, unix.IPPROTO_TCP, unix.TCP_NODELAY, boolint(noDelay)))
}

func (fd *Fd) SetSendBuffer(bytes int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd.sock, unix.SOL_SOCKET, unix.SO_SNDBUF, bytes))
}

func (fd *Fd) SetReceiveBuffer(bytes int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd.sock, unix.SOL_SOCKET, unix.SO_RCVBUF, bytes))
}

func (fd *Fd) SetKeepAlive(keepalive bool) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd.sock, unix.SOL_SOCKET, unix.SO_KEEPALIVE, boolint(keepalive)))
}

// SetKeepAlivePeriod sets the idle time and probe interval.
// Zero selects the 15s default and a negative period leaves the system value.
func (fd *Fd) SetKeepAlivePeriod(d time.Duration) error {
	if d == 0 {
		d = defaultTCPKeepAliveIdle
	} else if d < 0 {
		return nil
	}
	secs := int((d + time.Second - 1) / time.Second)
	return setKeepAlivePeriod(fd.sock, secs)
}

// SocketError reads and clears SO_ERROR.
func (fd *Fd) SocketError() (unix.Errno, error) {
	n, err := unix.GetsockoptInt(fd.sock, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	return unix.Errno(n), nil
}

func (fd *Fd) CloseRead() error {
	return os.NewSyscallError("shutdown", unix.Shutdown(fd.sock, unix.SHUT_RD))
}

func (fd *Fd) CloseWrite() error {
	return os.NewSyscallError("shutdown", unix.Shutdown(fd.sock, unix.SHUT_WR))
}

func (fd *Fd) Close() error {
	return os.NewSyscallError("close", unix.Close(fd.sock))
}
