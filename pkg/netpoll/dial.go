//go:build unix

package netpoll

import (
	"context"
	"net"
	"os"
	"syscall"

	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Connect dials endpoint over TCP. Every resolved address is tried in turn.
func Connect(ctx context.Context, endpoint transport.Endpoint, options transport.DialOptions) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := transport.LoggerOrNop(options.Logger).Named("netpoll")
	dialer := net.Dialer{KeepAlive: options.KeepAlive}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, transport.NewOpError(opConnect, endpoint.String(), err)
	}
	stream, err := newStream(conn.(*net.TCPConn), options.StreamOptions, logger)
	if err != nil {
		_ = conn.Close()
		return nil, transport.NewOpError(opConnect, endpoint.String(), err)
	}
	logger.Debug("stream connected", zap.Stringer("endpoint", endpoint))
	return stream, nil
}

// Listen binds endpoint and starts accepting. An empty host listens on
// every local address.
func Listen(ctx context.Context, endpoint transport.Endpoint, options transport.ListenOptions) (*Listener, error) {
	logger := transport.LoggerOrNop(options.Logger).Named("netpoll")
	config := net.ListenConfig{
		KeepAlive: options.KeepAlive,
		Control: func(_, _ string, c syscall.RawConn) error {
			if options.ReuseAddr {
				return nil
			}
			var optErr error
			if err := c.Control(func(fd uintptr) {
				optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 0)
			}); err != nil {
				return err
			}
			return os.NewSyscallError("setsockopt", optErr)
		},
	}
	ln, err := config.Listen(ctx, "tcp", endpoint.String())
	if err != nil {
		return nil, transport.NewOpError(opListen, endpoint.String(), err)
	}
	tcp := ln.(*net.TCPListener)
	if options.Backlog > 0 {
		if err = setBacklog(tcp, options.Backlog); err != nil {
			_ = ln.Close()
			return nil, transport.NewOpError(opListen, endpoint.String(), err)
		}
	}
	logger.Debug("listening", zap.Stringer("addr", ln.Addr()))
	return newListener(tcp, options.StreamOptions, logger), nil
}

// setBacklog calls listen again; the kernel updates the queue length of an
// already listening socket.
func setBacklog(ln *net.TCPListener, backlog int) error {
	raw, err := ln.SyscallConn()
	if err != nil {
		return err
	}
	var listenErr error
	if err = raw.Control(func(fd uintptr) {
		listenErr = unix.Listen(int(fd), backlog)
	}); err != nil {
		return err
	}
	return os.NewSyscallError("listen", listenErr)
}
