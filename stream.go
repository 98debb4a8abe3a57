package sock

import (
	"context"
	"io"
	"net"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	_ io.Reader = (*Stream)(nil)
	_ io.Writer = (*Stream)(nil)
	_ io.Closer = (*Stream)(nil)
)

// Stream is a connected TCP stream. It owns its socket; Close releases it
// and a Stream dropped without Close is released by the garbage collector.
type Stream struct {
	handle   backendStream
	endpoint Endpoint
	logger   *zap.Logger
	eof      atomic.Bool
}

func newStream(handle backendStream, endpoint Endpoint, logger *zap.Logger) *Stream {
	s := &Stream{
		handle:   handle,
		endpoint: endpoint,
		logger:   logger,
	}
	runtime.SetFinalizer(s, (*Stream).release)
	return s
}

func (s *Stream) release() {
	s.logger.Warn("stream released without Close", zap.Stringer("endpoint", s.endpoint))
	_ = s.handle.Close()
}

// Send writes part of p and reports how much the socket accepted. It
// blocks only while no byte can be accepted. On error, cancellation
// included, nothing was sent and the same bytes may be sent again.
func (s *Stream) Send(ctx context.Context, p []byte) (int, error) {
	n, err := s.handle.Send(ctx, p)
	err = wrapError(opSend, s.endpoint, err)
	observe(opSend, err)
	if err != nil {
		return 0, err
	}
	observeBytes("sent", n)
	return n, nil
}

// SendAll sends p completely. On error it reports how many leading bytes
// of p were sent.
func (s *Stream) SendAll(ctx context.Context, p []byte) (int, error) {
	sent := 0
	for sent < len(p) {
		n, err := s.Send(ctx, p[sent:])
		if err != nil {
			return sent, err
		}
		sent += n
	}
	return sent, nil
}

// Receive reads available bytes into p, waiting for at least one.
// It returns 0, nil once when the peer has closed its side; later calls
// fail with a closed-resource error. p must not be empty.
func (s *Stream) Receive(ctx context.Context, p []byte) (int, error) {
	n, err := s.handle.Receive(ctx, p)
	err = wrapError(opReceive, s.endpoint, err)
	switch {
	case err != nil:
		observe(opReceive, err)
		return 0, err
	case n == 0:
		s.eof.Store(true)
		operations.WithLabelValues(BackendName, opReceive, "eof").Inc()
	default:
		observe(opReceive, nil)
		observeBytes("received", n)
	}
	return n, nil
}

// Read implements io.Reader. End of stream is io.EOF.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.Receive(context.Background(), p)
	if err != nil {
		if s.eof.Load() && IsClosed(err) {
			return 0, io.EOF
		}
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer with SendAll.
func (s *Stream) Write(p []byte) (int, error) {
	return s.SendAll(context.Background(), p)
}

// Shutdown closes one or both directions. Repeated calls and calls after
// Close do nothing.
func (s *Stream) Shutdown(dir Direction) error {
	err := wrapError(opShutdown, s.endpoint, s.handle.Shutdown(dir))
	observe(opShutdown, err)
	return err
}

// Close releases the socket and wakes pending calls. It is idempotent.
func (s *Stream) Close() error {
	runtime.SetFinalizer(s, nil)
	err := wrapError(opClose, s.endpoint, s.handle.Close())
	observe(opClose, err)
	return err
}

func (s *Stream) LocalAddr() net.Addr {
	return s.handle.LocalAddr()
}

func (s *Stream) RemoteAddr() net.Addr {
	return s.handle.RemoteAddr()
}

// Endpoint is the endpoint the stream was connected to, or the peer's
// address for accepted streams.
func (s *Stream) Endpoint() Endpoint {
	return s.endpoint
}
