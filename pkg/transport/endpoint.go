package transport

import (
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/brickingsoft/errors"
)

// Endpoint is a host and port pair. The host is a name or an IP literal;
// an empty host means every local address when listening and the local
// system when connecting.
type Endpoint struct {
	host string
	port uint16
}

func NewEndpoint(host string, port uint16) Endpoint {
	return Endpoint{host: strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), port: port}
}

// EndpointFromAddrPort builds an endpoint from an IP address and port.
func EndpointFromAddrPort(addr netip.AddrPort) Endpoint {
	if !addr.Addr().IsValid() {
		return Endpoint{port: addr.Port()}
	}
	return Endpoint{host: addr.Addr().Unmap().String(), port: addr.Port()}
}

// ParseEndpoint parses "host:port". The port must be numeric.
func ParseEndpoint(address string) (Endpoint, error) {
	host, portText, err := net.SplitHostPort(strings.TrimSpace(address))
	if err != nil {
		return Endpoint{}, errors.From(ErrInvalidEndpoint, errors.WithMeta(errMetaAddressKey, address), errors.WithWrap(err))
	}
	port, err := strconv.ParseUint(portText, 10, 16)
	if err != nil {
		return Endpoint{}, errors.From(ErrInvalidEndpoint, errors.WithMeta(errMetaAddressKey, address), errors.WithWrap(err))
	}
	return Endpoint{host: host, port: uint16(port)}, nil
}

func (e Endpoint) Host() string {
	return e.host
}

func (e Endpoint) Port() uint16 {
	return e.port
}

// AddrPort reports the endpoint as an IP address when the host is a literal.
func (e Endpoint) AddrPort() (netip.AddrPort, bool) {
	addr, err := netip.ParseAddr(e.host)
	if err != nil {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(addr, e.port), true
}

func (e Endpoint) IsZero() bool {
	return e.host == "" && e.port == 0
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.host, strconv.FormatUint(uint64(e.port), 10))
}
