//go:build unix

package reactor

import (
	"context"
	"net"
	"os"

	"github.com/brickingsoft/sock/pkg/sys"
	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var _ transport.Stream = (*Stream)(nil)

// Stream is a TCP connection whose readiness comes from the reactor.
type Stream struct {
	fd     *sys.Fd
	src    *Source
	state  transport.State
	logger *zap.Logger
}

func newStream(fd *sys.Fd, src *Source, logger *zap.Logger) *Stream {
	return &Stream{
		fd:     fd,
		src:    src,
		logger: logger.With(zap.Stringer("local", fd.LocalAddr()), zap.Stringer("remote", fd.RemoteAddr())),
	}
}

func applyStreamOptions(fd *sys.Fd, options transport.StreamOptions) (err error) {
	err = multierr.Append(err, fd.SetNoDelay(options.NoDelay))
	if options.SendBufferSize > 0 {
		err = multierr.Append(err, fd.SetSendBuffer(options.SendBufferSize))
	}
	if options.ReceiveBufferSize > 0 {
		err = multierr.Append(err, fd.SetReceiveBuffer(options.ReceiveBufferSize))
	}
	if options.KeepAlive < 0 {
		return multierr.Append(err, fd.SetKeepAlive(false))
	}
	err = multierr.Append(err, fd.SetKeepAlive(true))
	err = multierr.Append(err, fd.SetKeepAlivePeriod(options.KeepAlive))
	return
}

// Send writes once from p. It reports how many bytes the kernel accepted;
// on error none were.
func (s *Stream) Send(ctx context.Context, p []byte) (int, error) {
	if err := s.state.WriteAllowed(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := s.state.WriteAllowed(); err != nil {
			return 0, err
		}
		tick := s.src.write.snapshot()
		if !s.src.acquire() {
			return 0, transport.ErrClosed
		}
		n, err := sys.IgnoringEINTRIO(unix.Write, s.src.fd, p)
		s.src.release()
		if err == nil {
			return n, nil
		}
		if err != unix.EAGAIN {
			return 0, transport.NewOpError(opSend, s.remote(), os.NewSyscallError("write", err))
		}
		if err = s.src.write.wait(ctx, tick); err != nil {
			return 0, err
		}
	}
}

// Receive reads once into p. It returns 0, nil the first time the peer's
// end of stream is seen and ErrClosed after that.
func (s *Stream) Receive(ctx context.Context, p []byte) (int, error) {
	if err := s.state.ReadAllowed(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, transport.ErrEmptyBuffer
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := s.state.ReadAllowed(); err != nil {
			return 0, err
		}
		tick := s.src.read.snapshot()
		if !s.src.acquire() {
			return 0, transport.ErrClosed
		}
		n, err := sys.IgnoringEINTRIO(unix.Read, s.src.fd, p)
		s.src.release()
		if err == nil {
			if n == 0 {
				return 0, s.state.ObserveEOF()
			}
			return n, nil
		}
		if err != unix.EAGAIN {
			return 0, transport.NewOpError(opReceive, s.remote(), os.NewSyscallError("read", err))
		}
		if err = s.src.read.wait(ctx, tick); err != nil {
			return 0, err
		}
	}
}

func (s *Stream) Shutdown(dir transport.Direction) (err error) {
	if !dir.Valid() {
		return transport.ErrInvalidDirection
	}
	read, write := s.state.Shutdown(dir)
	if !read && !write {
		return nil
	}
	if !s.src.acquire() {
		return nil
	}
	if read {
		err = multierr.Append(err, ignoreNotConnected(s.fd.CloseRead()))
	}
	if write {
		err = multierr.Append(err, ignoreNotConnected(s.fd.CloseWrite()))
	}
	s.src.release()
	// parked operations re-check the state
	if read {
		s.src.read.wake()
	}
	if write {
		s.src.write.wake()
	}
	s.logger.Debug("stream shutdown", zap.Stringer("direction", dir))
	return
}

func (s *Stream) Close() error {
	if !s.state.MarkClosed() {
		return nil
	}
	s.logger.Debug("stream closed")
	return s.src.Close()
}

func (s *Stream) LocalAddr() net.Addr {
	return s.fd.LocalAddr()
}

func (s *Stream) RemoteAddr() net.Addr {
	return s.fd.RemoteAddr()
}

func (s *Stream) remote() string {
	if addr := s.fd.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
