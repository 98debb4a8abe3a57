//go:build unix

// Package netpoll is the default socket backend. Streams are plain TCP
// sockets registered with the Go runtime network poller; blocking is done
// by parking the calling goroutine until the poller reports readiness.
package netpoll

import (
	"context"

	"github.com/brickingsoft/sock/pkg/transport"
)

const Name = "netpoll"

var _ transport.Backend[*Stream, *Listener] = Backend{}

type Backend struct{}

func (Backend) Name() string {
	return Name
}

func (Backend) Connect(ctx context.Context, endpoint transport.Endpoint, options transport.DialOptions) (*Stream, error) {
	return Connect(ctx, endpoint, options)
}

func (Backend) Listen(ctx context.Context, endpoint transport.Endpoint, options transport.ListenOptions) (*Listener, error) {
	return Listen(ctx, endpoint, options)
}
