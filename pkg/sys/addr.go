//go:build unix

package sys

import (
	"errors"
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"
)

var ErrInvalidAddr = errors.New("sys: invalid ip address")

// Family returns the socket family to use for addr.
func Family(addr netip.Addr) int {
	if addr.Is4() || addr.Is4In6() {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

// AddrToSockaddr converts addr to the socket address of its family.
// IPv4-mapped IPv6 addresses are unmapped first.
func AddrToSockaddr(addr netip.AddrPort) (sa unix.Sockaddr, err error) {
	ip := addr.Addr()
	if !ip.IsValid() {
		err = ErrInvalidAddr
		return
	}
	if ip.Is4() || ip.Is4In6() {
		sa = &unix.SockaddrInet4{
			Port: int(addr.Port()),
			Addr: ip.Unmap().As4(),
		}
		return
	}
	sa = &unix.SockaddrInet6{
		Port:   int(addr.Port()),
		Addr:   ip.As16(),
		ZoneId: zoneToIndex(ip.Zone()),
	}
	return
}

// SockaddrToAddr converts sa into a *net.TCPAddr.
// It returns nil for any family other than inet and inet6.
func SockaddrToAddr(sa unix.Sockaddr) net.Addr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{
			IP:   append([]byte{}, sa.Addr[:]...),
			Port: sa.Port,
		}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{
			IP:   append([]byte{}, sa.Addr[:]...),
			Port: sa.Port,
			Zone: indexToZone(sa.ZoneId),
		}
	default:
		return nil
	}
}

func zoneToIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	n, err := strconv.ParseUint(zone, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

func indexToZone(index uint32) string {
	if index == 0 {
		return ""
	}
	if ifi, err := net.InterfaceByIndex(int(index)); err == nil {
		return ifi.Name
	}
	return strconv.FormatUint(uint64(index), 10)
}
