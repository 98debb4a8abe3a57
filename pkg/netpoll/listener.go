//go:build unix

package netpoll

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/zap"
)

var _ transport.Listener[*Stream] = (*Listener)(nil)

type acceptResult struct {
	conn *net.TCPConn
	err  error
}

// Listener hands connections accepted by a single acceptor goroutine to
// Accept callers. A connection stays with the acceptor until a caller
// takes it, so cancelling Accept drops nothing.
type Listener struct {
	ln        *net.TCPListener
	options   transport.StreamOptions
	logger    *zap.Logger
	results   chan acceptResult
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

func newListener(ln *net.TCPListener, options transport.StreamOptions, logger *zap.Logger) *Listener {
	l := &Listener{
		ln:      ln,
		options: options,
		logger:  logger.With(zap.Stringer("listener", ln.Addr())),
		results: make(chan acceptResult),
		done:    make(chan struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		conn, err := l.ln.AcceptTCP()
		if err != nil && errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			l.logger.Debug("accept failed", zap.Error(err))
			err = transport.NewOpError(opAccept, l.ln.Addr().String(), err)
		}
		select {
		case l.results <- acceptResult{conn: conn, err: err}:
		case <-l.done:
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
	}
}

func (l *Listener) Accept(ctx context.Context) (*Stream, error) {
	select {
	case r := <-l.results:
		// both cases may be ready; a closed listener never hands out a stream
		select {
		case <-l.done:
			if r.conn != nil {
				_ = r.conn.Close()
			}
			return nil, transport.ErrListenerClosed
		default:
		}
		if r.err != nil {
			return nil, r.err
		}
		stream, err := newStream(r.conn, l.options, l.logger)
		if err != nil {
			_ = r.conn.Close()
			return nil, transport.NewOpError(opAccept, l.ln.Addr().String(), err)
		}
		l.logger.Debug("stream accepted", zap.Stringer("remote", r.conn.RemoteAddr()))
		return stream, nil
	case <-l.done:
		return nil, transport.ErrListenerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops the acceptor and wakes every pending Accept.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.closeErr = l.ln.Close()
		l.wg.Wait()
		l.logger.Debug("listener closed")
	})
	return l.closeErr
}
