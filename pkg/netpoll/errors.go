//go:build unix

package netpoll

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/brickingsoft/sock/pkg/transport"
)

const (
	opConnect = "connect"
	opListen  = "listen"
	opAccept  = "accept"
	opSend    = "send"
	opReceive = "receive"
)

// mapPollError translates runtime poller errors after a blocked call.
// Deadlines are only ever set by watch, so an expired deadline means ctx.
func mapPollError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	case errors.Is(err, net.ErrClosed):
		return transport.ErrClosed
	default:
		return err
	}
}

func ignoreNotConnected(err error) error {
	if errors.Is(err, syscall.ENOTCONN) {
		return nil
	}
	return err
}
