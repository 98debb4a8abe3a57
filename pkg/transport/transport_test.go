package transport_test

import (
	"errors"
	"net"
	"net/netip"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/brickingsoft/sock/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		address string
		host    string
		port    uint16
		text    string
	}{
		{"127.0.0.1:8080", "127.0.0.1", 8080, "127.0.0.1:8080"},
		{"localhost:0", "localhost", 0, "localhost:0"},
		{"[::1]:443", "::1", 443, "[::1]:443"},
		{":9000", "", 9000, ":9000"},
		{" example.com:65535 ", "example.com", 65535, "example.com:65535"},
	}
	for _, c := range cases {
		ep, err := transport.ParseEndpoint(c.address)
		require.NoError(t, err, c.address)
		assert.Equal(t, c.host, ep.Host(), c.address)
		assert.Equal(t, c.port, ep.Port(), c.address)
		assert.Equal(t, c.text, ep.String(), c.address)
	}
}

func TestParseEndpointInvalid(t *testing.T) {
	for _, address := range []string{"", "localhost", "host:http", "host:65536", "host:-1", "::1:80"} {
		_, err := transport.ParseEndpoint(address)
		require.Error(t, err, address)
		assert.True(t, transport.IsInvalidInput(err), address)
	}
}

func TestEndpoint(t *testing.T) {
	ep := transport.NewEndpoint("[::1]", 80)
	assert.Equal(t, "::1", ep.Host())
	addr, ok := ep.AddrPort()
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddrPort("[::1]:80"), addr)

	_, ok = transport.NewEndpoint("localhost", 80).AddrPort()
	assert.False(t, ok)

	ep = transport.EndpointFromAddrPort(netip.MustParseAddrPort("[::ffff:10.0.0.1]:7"))
	assert.Equal(t, "10.0.0.1:7", ep.String())

	assert.True(t, transport.Endpoint{}.IsZero())
	assert.False(t, transport.NewEndpoint("", 1).IsZero())
}

func TestDirection(t *testing.T) {
	assert.True(t, transport.Read.Reads())
	assert.False(t, transport.Read.Writes())
	assert.True(t, transport.Write.Writes())
	assert.True(t, transport.Both.Reads())
	assert.True(t, transport.Both.Writes())
	assert.False(t, transport.Direction(0).Valid())
	assert.False(t, transport.Direction(4).Valid())
	assert.Equal(t, "both", transport.Both.String())
}

func TestStateEOFOnce(t *testing.T) {
	var state transport.State
	require.NoError(t, state.ReadAllowed())

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if state.ObserveEOF() == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, transport.IsClosed(state.ReadAllowed()))
	assert.NoError(t, state.WriteAllowed())
}

func TestStateShutdown(t *testing.T) {
	var state transport.State

	read, write := state.Shutdown(transport.Write)
	assert.False(t, read)
	assert.True(t, write)
	assert.True(t, transport.IsClosed(state.WriteAllowed()))
	assert.NoError(t, state.ReadAllowed())

	read, write = state.Shutdown(transport.Both)
	assert.True(t, read)
	assert.False(t, write)
	assert.True(t, transport.IsClosed(state.ObserveEOF()))

	read, write = state.Shutdown(transport.Both)
	assert.False(t, read)
	assert.False(t, write)
}

func TestStateClose(t *testing.T) {
	var state transport.State
	assert.True(t, state.MarkClosed())
	assert.False(t, state.MarkClosed())
	assert.True(t, state.Closed())
	assert.True(t, transport.IsClosed(state.ReadAllowed()))
	assert.True(t, transport.IsClosed(state.WriteAllowed()))

	read, write := state.Shutdown(transport.Both)
	assert.False(t, read)
	assert.False(t, write)
}

func TestOpErrorKeepsCause(t *testing.T) {
	err := transport.NewOpError("send", "127.0.0.1:9", os.NewSyscallError("write", syscall.EPIPE))
	assert.ErrorIs(t, err, syscall.EPIPE)
	assert.Equal(t, "send 127.0.0.1:9: write: "+syscall.EPIPE.Error(), err.Error())

	var errno syscall.Errno
	require.True(t, errors.As(err, &errno))
	assert.Equal(t, syscall.EPIPE, errno)

	dnsErr := &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}
	var got *net.DNSError
	require.True(t, errors.As(transport.NewOpError("connect", "nowhere.invalid:80", dnsErr), &got))
	assert.Same(t, dnsErr, got)
}

func TestOpErrorSentinels(t *testing.T) {
	assert.True(t, transport.IsClosed(transport.NewOpError("send", "", transport.ErrClosed)))
	assert.True(t, transport.IsListenerClosed(transport.NewOpError("accept", "", transport.ErrListenerClosed)))
	assert.True(t, transport.IsInvalidInput(transport.NewOpError("receive", "", transport.ErrEmptyBuffer)))
	assert.False(t, transport.IsClosed(transport.NewOpError("send", "", syscall.EPIPE)))
}
