//go:build unix

package reactor

import (
	"context"

	"github.com/brickingsoft/sock/pkg/transport"
)

const Name = "reactor"

var _ transport.Backend[*Stream, *Listener] = Backend{}

// Backend uses the process-wide reactor.
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
