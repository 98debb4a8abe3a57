//go:build unix

package netpoll

import (
	"context"
	"net"
	"os"
	"syscall"

	"github.com/brickingsoft/sock/pkg/sys"
	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var _ transport.Stream = (*Stream)(nil)

// Stream is a TCP connection driven by the Go runtime poller.
// Each Send and Receive performs at most one system call once the socket
// is ready, so a cancelled call never leaves a partial transfer behind.
type Stream struct {
	conn   *net.TCPConn
	raw    syscall.RawConn
	state  transport.State
	logger *zap.Logger
}

func newStream(conn *net.TCPConn, options transport.StreamOptions, logger *zap.Logger) (*Stream, error) {
	if err := applyStreamOptions(conn, options); err != nil {
		return nil, err
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}
	return &Stream{
		conn:   conn,
		raw:    raw,
		logger: logger.With(zap.Stringer("local", conn.LocalAddr()), zap.Stringer("remote", conn.RemoteAddr())),
	}, nil
}

func applyStreamOptions(conn *net.TCPConn, options transport.StreamOptions) (err error) {
	err = multierr.Append(err, conn.SetNoDelay(options.NoDelay))
	if options.SendBufferSize > 0 {
		err = multierr.Append(err, conn.SetWriteBuffer(options.SendBufferSize))
	}
	if options.ReceiveBufferSize > 0 {
		err = multierr.Append(err, conn.SetReadBuffer(options.ReceiveBufferSize))
	}
	return
}

// Send writes once from p. It reports how many bytes the kernel accepted;
// on error none were.
func (s *Stream) Send(ctx context.Context, p []byte) (n int, err error) {
	if err = s.state.WriteAllowed(); err != nil {
		return
	}
	if len(p) == 0 {
		return
	}
	if err = ctx.Err(); err != nil {
		return
	}
	stop := watch(ctx, s.conn.SetWriteDeadline)
	var opErr error
	rawErr := s.raw.Write(func(fd uintptr) bool {
		n, opErr = sys.IgnoringEINTRIO(unix.Write, int(fd), p)
		return opErr != unix.EAGAIN
	})
	stop()
	if rawErr != nil {
		return 0, mapPollError(ctx, rawErr)
	}
	if opErr != nil {
		if s.state.Closed() {
			return 0, transport.ErrClosed
		}
		return 0, transport.NewOpError(opSend, s.conn.RemoteAddr().String(), os.NewSyscallError("write", opErr))
	}
	return
}

// Receive reads once into p. It returns 0, nil the first time the peer's
// end of stream is seen and ErrClosed after that.
func (s *Stream) Receive(ctx context.Context, p []byte) (n int, err error) {
	if err = s.state.ReadAllowed(); err != nil {
		return
	}
	if len(p) == 0 {
		err = transport.ErrEmptyBuffer
		return
	}
	if err = ctx.Err(); err != nil {
		return
	}
	stop := watch(ctx, s.conn.SetReadDeadline)
	var opErr error
	rawErr := s.raw.Read(func(fd uintptr) bool {
		n, opErr = sys.IgnoringEINTRIO(unix.Read, int(fd), p)
		return opErr != unix.EAGAIN
	})
	stop()
	if rawErr != nil {
		return 0, mapPollError(ctx, rawErr)
	}
	if opErr != nil {
		if s.state.Closed() {
			return 0, transport.ErrClosed
		}
		return 0, transport.NewOpError(opReceive, s.conn.RemoteAddr().String(), os.NewSyscallError("read", opErr))
	}
	if n == 0 {
		err = s.state.ObserveEOF()
	}
	return
}

func (s *Stream) Shutdown(dir transport.Direction) (err error) {
	if !dir.Valid() {
		return transport.ErrInvalidDirection
	}
	read, write := s.state.Shutdown(dir)
	if read {
		err = multierr.Append(err, ignoreNotConnected(s.conn.CloseRead()))
	}
	if write {
		err = multierr.Append(err, ignoreNotConnected(s.conn.CloseWrite()))
	}
	if read || write {
		s.logger.Debug("stream shutdown", zap.Stringer("direction", dir))
	}
	return
}

func (s *Stream) Close() error {
	if !s.state.MarkClosed() {
		return nil
	}
	s.logger.Debug("stream closed")
	return s.conn.Close()
}

func (s *Stream) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *Stream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}
