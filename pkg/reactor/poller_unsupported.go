//go:build unix && !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package reactor

import (
	"github.com/brickingsoft/sock/pkg/transport"
)

func newPoller() (poller, error) {
	return nil, transport.ErrUnsupported
}
