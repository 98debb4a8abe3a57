//go:build unix && !reactor_socket

package sock

import (
	"github.com/brickingsoft/sock/pkg/netpoll"
	"github.com/brickingsoft/sock/pkg/transport"
)

// BackendName names the backend this binary was built with.
const BackendName = netpoll.Name

type (
	backendImpl     = netpoll.Backend
	backendStream   = *netpoll.Stream
	backendListener = *netpoll.Listener
)

var _ transport.Backend[backendStream, backendListener] = backendImpl{}
