// Package transport defines the contract every socket backend satisfies.
//
// A backend is a set of three types: a Backend that connects and listens,
// the Listener it returns, and the Stream both of them produce. Generic
// parameters keep the concrete types visible to callers so the build-time
// selection in the root package costs no interface dispatch.
package transport

import (
	"context"
	"net"
)

// Stream is a connected, bidirectional byte stream.
//
// Send performs one write: on success it reports 1..len(p) accepted bytes,
// on any error (cancellation included) it accepted none. Receive returns
// 0, nil exactly once when the peer closed its writing side. Shutdown and
// Close are idempotent; Close wakes every pending operation with ErrClosed.
type Stream interface {
	Send(ctx context.Context, p []byte) (int, error)
	Receive(ctx context.Context, p []byte) (int, error)
	Shutdown(dir Direction) error
	Close() error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// Listener accepts inbound streams.
// Close wakes pending Accept calls with ErrListenerClosed.
// A cancelled Accept leaves pending connections queued.
type Listener[S Stream] interface {
	Accept(ctx context.Context) (S, error)
	Addr() net.Addr
	Close() error
}

// Backend creates streams and listeners.
type Backend[S Stream, L Listener[S]] interface {
	Name() string
	Connect(ctx context.Context, endpoint Endpoint, options DialOptions) (S, error)
	Listen(ctx context.Context, endpoint Endpoint, options ListenOptions) (L, error)
}
