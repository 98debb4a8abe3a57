//go:build unix && reactor_socket

package sock

import (
	"github.com/brickingsoft/sock/pkg/reactor"
	"github.com/brickingsoft/sock/pkg/transport"
)

// BackendName names the backend this binary was built with.
const BackendName = reactor.Name

type (
	backendImpl     = reactor.Backend
	backendStream   = *reactor.Stream
	backendListener = *reactor.Listener
)

var _ transport.Backend[backendStream, backendListener] = backendImpl{}
