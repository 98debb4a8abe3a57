//go:build unix

package sys_test

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/brickingsoft/sock/pkg/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const (
	defaultWait  = 2 * time.Second
	pollInterval = 5 * time.Millisecond
)

func TestAddrToSockaddr(t *testing.T) {
	sa, err := sys.AddrToSockaddr(netip.MustParseAddrPort("127.0.0.1:8080"))
	require.NoError(t, err)
	sa4, ok := sa.(*unix.SockaddrInet4)
	require.True(t, ok)
	assert.Equal(t, 8080, sa4.Port)
	assert.Equal(t, [4]byte{127, 0, 0, 1}, sa4.Addr)

	sa, err = sys.AddrToSockaddr(netip.MustParseAddrPort("[::ffff:10.0.0.1]:53"))
	require.NoError(t, err)
	_, ok = sa.(*unix.SockaddrInet4)
	assert.True(t, ok, "mapped addresses use the inet family")

	sa, err = sys.AddrToSockaddr(netip.MustParseAddrPort("[::1]:9"))
	require.NoError(t, err)
	sa6, ok := sa.(*unix.SockaddrInet6)
	require.True(t, ok)
	assert.Equal(t, netip.IPv6Loopback().As16(), sa6.Addr)

	_, err = sys.AddrToSockaddr(netip.AddrPort{})
	assert.ErrorIs(t, err, sys.ErrInvalidAddr)
}

func TestSockaddrToAddr(t *testing.T) {
	addr := sys.SockaddrToAddr(&unix.SockaddrInet4{Port: 80, Addr: [4]byte{10, 1, 2, 3}})
	assert.Equal(t, "10.1.2.3:80", addr.String())

	addr = sys.SockaddrToAddr(&unix.SockaddrInet6{Port: 443, Addr: netip.IPv6Loopback().As16()})
	assert.Equal(t, "[::1]:443", addr.String())

	assert.Nil(t, sys.SockaddrToAddr(&unix.SockaddrUnix{Name: "/tmp/x"}))
}

func TestListenTCP(t *testing.T) {
	fd, err := sys.ListenTCP(netip.MustParseAddrPort("127.0.0.1:0"), sys.ListenOptions{ReuseAddr: true})
	require.NoError(t, err)
	defer func() {
		_ = fd.Close()
	}()

	addr, ok := fd.LocalAddr().(*net.TCPAddr)
	require.True(t, ok)
	assert.NotZero(t, addr.Port)
	assert.True(t, addr.IP.Equal(net.IPv4(127, 0, 0, 1)))

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()
}

func TestConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		_ = ln.Close()
	}()
	target := ln.Addr().(*net.TCPAddr).AddrPort()

	sock, err := sys.NewSocket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	require.NoError(t, err)
	fd := sys.NewFd(sock, unix.AF_INET, unix.SOCK_STREAM)
	defer func() {
		_ = fd.Close()
	}()

	inProgress, err := fd.Connect(target)
	require.NoError(t, err)
	if inProgress {
		require.Eventually(t, func() bool {
			connected, connErr := fd.Connected()
			return connErr == nil && connected
		}, defaultWait, pollInterval)
	}
	require.NoError(t, fd.LoadRemoteAddr())
	assert.Equal(t, ln.Addr().String(), fd.RemoteAddr().String())
}

func TestMaxListenerBacklog(t *testing.T) {
	assert.Positive(t, sys.MaxListenerBacklog())
}
