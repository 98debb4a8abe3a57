package sock

import (
	"context"
	"net"
	"runtime"

	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/zap"
)

// Listener accepts inbound streams.
type Listener struct {
	handle   backendListener
	endpoint Endpoint
	logger   *zap.Logger
}

func newListener(handle backendListener, logger *zap.Logger) *Listener {
	ln := &Listener{
		handle:   handle,
		endpoint: endpointOf(handle.Addr()),
		logger:   logger,
	}
	runtime.SetFinalizer(ln, (*Listener).release)
	return ln
}

func (ln *Listener) release() {
	ln.logger.Warn("listener released without Close", zap.Stringer("endpoint", ln.endpoint))
	_ = ln.handle.Close()
}

// Accept waits for the next inbound stream. Closing the listener wakes
// every pending Accept with a listener-closed error; cancelling one Accept
// leaves queued connections for the next call.
func (ln *Listener) Accept(ctx context.Context) (*Stream, error) {
	handle, err := ln.handle.Accept(ctx)
	err = wrapError(opAccept, ln.endpoint, err)
	observe(opAccept, err)
	if err != nil {
		return nil, err
	}
	return newStream(handle, endpointOf(handle.RemoteAddr()), ln.logger), nil
}

func (ln *Listener) Addr() net.Addr {
	return ln.handle.Addr()
}

// Endpoint is the bound address, with the port the system picked.
func (ln *Listener) Endpoint() Endpoint {
	return ln.endpoint
}

func (ln *Listener) Close() error {
	runtime.SetFinalizer(ln, nil)
	err := wrapError(opClose, ln.endpoint, ln.handle.Close())
	observe(opClose, err)
	return err
}

func endpointOf(addr net.Addr) Endpoint {
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp != nil {
		return transport.EndpointFromAddrPort(tcp.AddrPort())
	}
	return Endpoint{}
}
