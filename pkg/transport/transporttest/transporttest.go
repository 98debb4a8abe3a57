// Package transporttest checks a backend against the transport contract.
// Backend packages call Run from their own tests so every backend is held
// to the same behaviour.
package transporttest

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/brickingsoft/sock/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const (
	shortTimeout = 50 * time.Millisecond
	testTimeout  = 10 * time.Second
	smallBuffer  = 16 << 10
)

// Run executes the conformance cases as subtests of t.
func Run[S transport.Stream, L transport.Listener[S]](t *testing.T, backend transport.Backend[S, L]) {
	s := suite[S, L]{backend: backend}
	t.Run("Hello", s.testHello)
	t.Run("OrderedDelivery", s.testOrderedDelivery)
	t.Run("EndOfStreamOnce", s.testEndOfStreamOnce)
	t.Run("EmptyBuffers", s.testEmptyBuffers)
	t.Run("Addresses", s.testAddresses)
	t.Run("ShutdownIdempotent", s.testShutdownIdempotent)
	t.Run("ShutdownBlocksDirection", s.testShutdownBlocksDirection)
	t.Run("OperationsAfterClose", s.testOperationsAfterClose)
	t.Run("CloseWakesReceive", s.testCloseWakesReceive)
	t.Run("CancelPendingReceive", s.testCancelPendingReceive)
	t.Run("CancelPendingSend", s.testCancelPendingSend)
	t.Run("CancelledBeforeStart", s.testCancelledBeforeStart)
	t.Run("AcceptUnblockedByClose", s.testAcceptUnblockedByClose)
	t.Run("CancelAcceptKeepsConnection", s.testCancelAcceptKeepsConnection)
	t.Run("ConnectRefused", s.testConnectRefused)
	t.Run("ConnectCanceled", s.testConnectCanceled)
	t.Run("ParallelPairs", s.testParallelPairs)
}

type suite[S transport.Stream, L transport.Listener[S]] struct {
	backend transport.Backend[S, L]
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

func (s suite[S, L]) listen(t *testing.T, options transport.ListenOptions) L {
	ln, err := s.backend.Listen(testContext(t), transport.NewEndpoint("127.0.0.1", 0), options)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ln.Close()
	})
	return ln
}

func endpointOf(t *testing.T, addr net.Addr) transport.Endpoint {
	tcp, ok := addr.(*net.TCPAddr)
	require.True(t, ok, "listener address %v", addr)
	return transport.EndpointFromAddrPort(tcp.AddrPort())
}

// pair returns a connected client and server.
func (s suite[S, L]) pair(t *testing.T, dial transport.DialOptions, listen transport.ListenOptions) (client S, server S) {
	ctx := testContext(t)
	ln := s.listen(t, listen)

	type accepted struct {
		stream S
		err    error
	}
	ch := make(chan accepted, 1)
	go func() {
		stream, err := ln.Accept(ctx)
		ch <- accepted{stream, err}
	}()

	client, err := s.backend.Connect(ctx, endpointOf(t, ln.Addr()), dial)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	a := <-ch
	require.NoError(t, a.err)
	t.Cleanup(func() {
		_ = a.stream.Close()
	})
	return client, a.stream
}

func (s suite[S, L]) defaultPair(t *testing.T) (S, S) {
	return s.pair(t, transport.DefaultDialOptions(), transport.DefaultListenOptions())
}

func sendAll(ctx context.Context, stream transport.Stream, p []byte) error {
	for len(p) > 0 {
		n, err := stream.Send(ctx, p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// receiveAll reads until end of stream.
func receiveAll(ctx context.Context, stream transport.Stream) ([]byte, error) {
	var out bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, err := stream.Receive(ctx, buf)
		if err != nil {
			return out.Bytes(), err
		}
		if n == 0 {
			return out.Bytes(), nil
		}
		out.Write(buf[:n])
	}
}

func (s suite[S, L]) testHello(t *testing.T) {
	ctx := testContext(t)
	client, server := s.defaultPair(t)

	require.NoError(t, sendAll(ctx, client, []byte("HELLO")))
	require.NoError(t, client.Shutdown(transport.Write))

	got, err := receiveAll(ctx, server)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(got))
}

func (s suite[S, L]) testOrderedDelivery(t *testing.T) {
	ctx := testContext(t)
	client, server := s.defaultPair(t)

	payload := make([]byte, 1<<20)
	rnd := rand.New(rand.NewSource(1))
	_, _ = rnd.Read(payload)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rest := payload
		for len(rest) > 0 {
			size := 1 + rnd.Intn(64<<10)
			if size > len(rest) {
				size = len(rest)
			}
			if err := sendAll(gctx, client, rest[:size]); err != nil {
				return err
			}
			rest = rest[size:]
		}
		return client.Shutdown(transport.Write)
	})
	var got []byte
	g.Go(func() (err error) {
		got, err = receiveAll(gctx, server)
		return
	})
	require.NoError(t, g.Wait())
	assert.True(t, bytes.Equal(payload, got), "received %d of %d bytes in order", len(got), len(payload))
}

func (s suite[S, L]) testEndOfStreamOnce(t *testing.T) {
	ctx := testContext(t)
	client, server := s.defaultPair(t)

	require.NoError(t, client.Close())

	buf := make([]byte, 16)
	n, err := server.Receive(ctx, buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = server.Receive(ctx, buf)
	assert.Zero(t, n)
	assert.True(t, transport.IsClosed(err), "second receive after end of stream: %v", err)
}

func (s suite[S, L]) testEmptyBuffers(t *testing.T) {
	ctx := testContext(t)
	client, server := s.defaultPair(t)

	n, err := client.Send(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = server.Receive(ctx, nil)
	assert.Zero(t, n)
	assert.True(t, transport.IsInvalidInput(err), "receive into an empty buffer: %v", err)
}

func (s suite[S, L]) testAddresses(t *testing.T) {
	client, server := s.defaultPair(t)

	require.NotNil(t, client.LocalAddr())
	require.NotNil(t, client.RemoteAddr())
	assert.Equal(t, client.LocalAddr().String(), server.RemoteAddr().String())
	assert.Equal(t, client.RemoteAddr().String(), server.LocalAddr().String())
}

func (s suite[S, L]) testShutdownIdempotent(t *testing.T) {
	client, server := s.defaultPair(t)

	assert.NoError(t, client.Shutdown(transport.Write))
	assert.NoError(t, client.Shutdown(transport.Write))
	assert.NoError(t, client.Shutdown(transport.Read))
	assert.NoError(t, client.Shutdown(transport.Both))

	assert.True(t, transport.IsInvalidInput(server.Shutdown(transport.Direction(0))))

	require.NoError(t, server.Close())
	assert.NoError(t, server.Shutdown(transport.Both))
	assert.NoError(t, server.Close())
}

func (s suite[S, L]) testShutdownBlocksDirection(t *testing.T) {
	ctx := testContext(t)
	client, server := s.defaultPair(t)

	require.NoError(t, client.Shutdown(transport.Write))
	_, err := client.Send(ctx, []byte("x"))
	assert.True(t, transport.IsClosed(err), "send after write shutdown: %v", err)

	require.NoError(t, server.Shutdown(transport.Read))
	_, err = server.Receive(ctx, make([]byte, 1))
	assert.True(t, transport.IsClosed(err), "receive after read shutdown: %v", err)

	// the other halves keep working
	require.NoError(t, sendAll(ctx, server, []byte("pong")))
	buf := make([]byte, 4)
	n, err := client.Receive(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "pong"[:n], string(buf[:n]))
	assert.Positive(t, n)
}

func (s suite[S, L]) testOperationsAfterClose(t *testing.T) {
	ctx := testContext(t)
	client, _ := s.defaultPair(t)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.Send(ctx, []byte("x"))
	assert.True(t, transport.IsClosed(err), "send after close: %v", err)
	_, err = client.Receive(ctx, make([]byte, 1))
	assert.True(t, transport.IsClosed(err), "receive after close: %v", err)
}

func (s suite[S, L]) testCloseWakesReceive(t *testing.T) {
	ctx := testContext(t)
	client, _ := s.defaultPair(t)

	done := make(chan error, 1)
	go func() {
		_, err := client.Receive(ctx, make([]byte, 8))
		done <- err
	}()
	time.Sleep(shortTimeout)
	require.NoError(t, client.Close())

	select {
	case err := <-done:
		assert.True(t, transport.IsClosed(err), "pending receive woken by close: %v", err)
	case <-ctx.Done():
		t.Fatal("close did not wake the pending receive")
	}
}

func (s suite[S, L]) testCancelPendingReceive(t *testing.T) {
	ctx := testContext(t)
	client, server := s.defaultPair(t)

	rctx, cancel := context.WithTimeout(ctx, shortTimeout)
	n, err := server.Receive(rctx, make([]byte, 8))
	cancel()
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a cancelled receive leaves the stream usable and consumed nothing
	require.NoError(t, sendAll(ctx, client, []byte("x")))
	buf := make([]byte, 8)
	n, err = server.Receive(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "x", string(buf[:n]))

	cctx, cancel := context.WithCancel(ctx)
	go func() {
		time.Sleep(shortTimeout)
		cancel()
	}()
	_, err = server.Receive(cctx, buf)
	assert.ErrorIs(t, err, context.Canceled)
}

// testCancelPendingSend fills the socket buffers until a send blocks,
// cancels it, then checks the receiver sees every accepted byte exactly once.
func (s suite[S, L]) testCancelPendingSend(t *testing.T) {
	ctx := testContext(t)
	small := transport.DefaultStreamOptions()
	small.SendBufferSize = smallBuffer
	small.ReceiveBufferSize = smallBuffer
	client, server := s.pair(t,
		transport.DialOptions{StreamOptions: small},
		transport.ListenOptions{StreamOptions: small, ReuseAddr: true},
	)

	var (
		sent    []byte
		counter byte
	)
	next := func() []byte {
		chunk := make([]byte, 4096)
		for i := range chunk {
			chunk[i] = counter
			counter++
		}
		return chunk
	}

	pending := next()
	blocked := false
	for len(sent) < 64<<20 {
		sctx, cancel := context.WithTimeout(ctx, shortTimeout)
		n, err := client.Send(sctx, pending)
		cancel()
		if err != nil {
			require.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Zero(t, n)
			blocked = true
			break
		}
		require.Positive(t, n)
		sent = append(sent, pending[:n]...)
		pending = pending[n:]
		if len(pending) == 0 {
			pending = next()
		}
	}
	require.True(t, blocked, "send never blocked")

	g, gctx := errgroup.WithContext(ctx)
	var received []byte
	g.Go(func() (err error) {
		received, err = receiveAll(gctx, server)
		return
	})
	g.Go(func() error {
		for len(pending) > 0 {
			n, err := client.Send(gctx, pending)
			if err != nil {
				return err
			}
			sent = append(sent, pending[:n]...)
			pending = pending[n:]
		}
		return client.Shutdown(transport.Write)
	})
	require.NoError(t, g.Wait())
	require.Equal(t, len(sent), len(received))
	assert.True(t, bytes.Equal(sent, received), "stream content after a cancelled send")
}

func (s suite[S, L]) testCancelledBeforeStart(t *testing.T) {
	client, server := s.defaultPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := client.Send(ctx, []byte("x"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)

	n, err = server.Receive(ctx, make([]byte, 1))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
}

func (s suite[S, L]) testAcceptUnblockedByClose(t *testing.T) {
	ctx := testContext(t)
	ln := s.listen(t, transport.DefaultListenOptions())

	const waiters = 3
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ln.Accept(ctx)
			errs <- err
		}()
	}
	time.Sleep(shortTimeout)
	require.NoError(t, ln.Close())
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.True(t, transport.IsListenerClosed(err), "pending accept woken by close: %v", err)
	}

	_, err := ln.Accept(ctx)
	assert.True(t, transport.IsListenerClosed(err), "accept after close: %v", err)
	assert.NoError(t, ln.Close())
}

func (s suite[S, L]) testCancelAcceptKeepsConnection(t *testing.T) {
	ctx := testContext(t)
	ln := s.listen(t, transport.DefaultListenOptions())

	actx, cancel := context.WithTimeout(ctx, shortTimeout)
	_, err := ln.Accept(actx)
	cancel()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	client, err := s.backend.Connect(ctx, endpointOf(t, ln.Addr()), transport.DefaultDialOptions())
	require.NoError(t, err)
	defer func() {
		_ = client.Close()
	}()

	server, err := ln.Accept(ctx)
	require.NoError(t, err)
	defer func() {
		_ = server.Close()
	}()
	assert.Equal(t, client.LocalAddr().String(), server.RemoteAddr().String())
}

func (s suite[S, L]) testConnectRefused(t *testing.T) {
	ctx := testContext(t)
	ln, err := s.backend.Listen(ctx, transport.NewEndpoint("127.0.0.1", 0), transport.DefaultListenOptions())
	require.NoError(t, err)
	endpoint := endpointOf(t, ln.Addr())
	require.NoError(t, ln.Close())

	_, err = s.backend.Connect(ctx, endpoint, transport.DefaultDialOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED), "connect to a closed port: %v", err)
}

func (s suite[S, L]) testConnectCanceled(t *testing.T) {
	ln := s.listen(t, transport.DefaultListenOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.backend.Connect(ctx, endpointOf(t, ln.Addr()), transport.DefaultDialOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func (s suite[S, L]) testParallelPairs(t *testing.T) {
	ctx := testContext(t)
	ln := s.listen(t, transport.DefaultListenOptions())
	endpoint := endpointOf(t, ln.Addr())

	const pairs = 8
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := 0; i < pairs; i++ {
			server, err := ln.Accept(gctx)
			if err != nil {
				return err
			}
			g.Go(func() error {
				defer func() {
					_ = server.Close()
				}()
				buf := make([]byte, 1024)
				for {
					n, err := server.Receive(gctx, buf)
					if err != nil || n == 0 {
						return err
					}
					if err = sendAll(gctx, server, buf[:n]); err != nil {
						return err
					}
				}
			})
		}
		return nil
	})
	for i := 0; i < pairs; i++ {
		message := bytes.Repeat([]byte{byte('a' + i)}, 10000+i)
		g.Go(func() error {
			client, err := s.backend.Connect(gctx, endpoint, transport.DefaultDialOptions())
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()
			var echo []byte
			rg, rctx := errgroup.WithContext(gctx)
			rg.Go(func() (err error) {
				echo, err = receiveAll(rctx, client)
				return
			})
			rg.Go(func() error {
				if err := sendAll(rctx, client, message); err != nil {
					return err
				}
				return client.Shutdown(transport.Write)
			})
			if err = rg.Wait(); err != nil {
				return err
			}
			if !bytes.Equal(message, echo) {
				return errors.New("echo mismatch")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
