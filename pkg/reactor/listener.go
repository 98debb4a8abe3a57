//go:build unix

package reactor

import (
	"context"
	"net"
	"os"
	"sync/atomic"

	"github.com/brickingsoft/sock/pkg/sys"
	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var _ transport.Listener[*Stream] = (*Listener)(nil)

// Listener accepts on a non-blocking socket. Pending connections stay in
// the kernel queue until an Accept takes them, so cancelling drops nothing.
type Listener struct {
	fd      *sys.Fd
	src     *Source
	reactor *Reactor
	options transport.StreamOptions
	logger  *zap.Logger
	closed  atomic.Bool
}

func (l *Listener) Accept(ctx context.Context) (*Stream, error) {
	for {
		if l.closed.Load() {
			return nil, transport.ErrListenerClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tick := l.src.read.snapshot()
		if !l.src.acquire() {
			return nil, transport.ErrListenerClosed
		}
		nfd, sa, err := sys.Accept(l.src.fd)
		l.src.release()
		switch err {
		case nil:
			return l.accepted(nfd, sa)
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN:
			if err = l.src.read.wait(ctx, tick); err != nil {
				if transport.IsClosed(err) {
					return nil, transport.ErrListenerClosed
				}
				return nil, err
			}
		default:
			l.logger.Debug("accept failed", zap.Error(err))
			return nil, transport.NewOpError(opAccept, l.fd.LocalAddr().String(), os.NewSyscallError("accept", err))
		}
	}
}

func (l *Listener) accepted(nfd int, sa unix.Sockaddr) (*Stream, error) {
	fd := sys.NewFd(nfd, l.fd.Family(), unix.SOCK_STREAM)
	fd.SetRemoteAddr(sys.SockaddrToAddr(sa))
	if err := fd.LoadLocalAddr(); err != nil {
		fd.SetLocalAddr(l.fd.LocalAddr())
	}
	if err := applyStreamOptions(fd, l.options); err != nil {
		_ = fd.Close()
		return nil, transport.NewOpError(opAccept, l.fd.LocalAddr().String(), err)
	}
	src, err := l.reactor.Register(nfd)
	if err != nil {
		_ = fd.Close()
		return nil, transport.NewOpError(opAccept, l.fd.LocalAddr().String(), err)
	}
	l.logger.Debug("stream accepted", zap.Stringer("remote", fd.RemoteAddr()))
	return newStream(fd, src, l.logger), nil
}

func (l *Listener) Addr() net.Addr {
	return l.fd.LocalAddr()
}

// Close wakes every pending Accept with ErrListenerClosed.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.logger.Debug("listener closed")
	return l.src.Close()
}
