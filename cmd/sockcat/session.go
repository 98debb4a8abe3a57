package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/brickingsoft/sock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

const chunkSize = 32 << 10

var errPeerClosed = errors.New("peer closed")

// input reads stdin once for the whole run so that -k sessions share it.
// Reads from a terminal or pipe cannot be cancelled, so the reader lives in
// its own goroutine and hands chunks over a channel.
type input struct {
	chunks chan []byte
	err    error
}

func readInput(r io.Reader) *input {
	in := &input{chunks: make(chan []byte)}
	go in.run(r)
	return in
}

func (in *input) run(r io.Reader) {
	defer close(in.chunks)
	for {
		buf := make([]byte, chunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			in.chunks <- buf[:n]
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				in.err = err
			}
			return
		}
	}
}

type runner struct {
	cfg    *Config
	logger *zap.Logger
	input  *input
	output io.Writer
}

func (r *runner) connect(ctx context.Context) error {
	dialCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	s, err := sock.Connect(dialCtx, r.cfg.Endpoint(), r.cfg.Options()...)
	if err != nil {
		return err
	}
	defer s.Close()
	r.announce("connected to", s)
	return r.session(ctx, s)
}

func (r *runner) listen(ctx context.Context) error {
	ln, err := sock.Listen(ctx, r.cfg.Endpoint(), r.cfg.Options()...)
	if err != nil {
		return err
	}
	defer ln.Close()
	r.logger.Info("listening", zap.Stringer("endpoint", ln.Endpoint()))

	for {
		acceptCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.cfg.Timeout > 0 {
			acceptCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		}
		s, acceptErr := ln.Accept(acceptCtx)
		cancel()
		if acceptErr != nil {
			if sock.IsCanceled(acceptErr) {
				return nil
			}
			return acceptErr
		}
		r.announce("connection from", s)
		err = r.session(ctx, s)
		_ = s.Close()
		if err != nil || !r.cfg.KeepOpen || ctx.Err() != nil {
			return err
		}
	}
}

func (r *runner) announce(msg string, s *sock.Stream) {
	r.logger.Info(msg, zap.Stringer("remote", s.RemoteAddr()), zap.String("backend", sock.BackendName))
	// interactive runs get a plain line even when logging is quiet
	if r.cfg.Verbose == 0 && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "%s %s\n", msg, s.RemoteAddr())
	}
}

// session copies input to s and s to output until the peer closes its side
// or ctx ends. End of input shuts down the write side only.
func (r *runner) session(ctx context.Context, s *sock.Stream) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		buf := make([]byte, chunkSize)
		for {
			n, err := s.Receive(gctx, buf)
			if err != nil {
				return err
			}
			if n == 0 {
				return errPeerClosed
			}
			if _, err = r.output.Write(buf[:n]); err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case chunk, ok := <-r.input.chunks:
				if !ok {
					if r.input.err != nil {
						return r.input.err
					}
					r.logger.Debug("input finished, shutting down write side")
					return s.Shutdown(sock.ShutdownWrite)
				}
				if _, err := s.SendAll(gctx, chunk); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, errPeerClosed) || sock.IsCanceled(err) {
		return nil
	}
	return err
}
