//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package reactor

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/sock/pkg/transport"
	"github.com/brickingsoft/sock/pkg/transport/transporttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBackend(t *testing.T) {
	transporttest.Run[*Stream, *Listener](t, Backend{})
}

func TestReadinessWaitCancelled(t *testing.T) {
	var r readiness
	tick := r.snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.wait(ctx, tick)
	}()
	require.Eventually(t, func() bool { return r.pending() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Zero(t, r.pending())
}

func TestReadinessWake(t *testing.T) {
	var r readiness
	tick := r.snapshot()

	const waiters = 4
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.wait(context.Background(), tick)
		}()
	}
	require.Eventually(t, func() bool { return r.pending() == waiters }, time.Second, time.Millisecond)
	r.wake()
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	// an event between snapshot and wait is not lost
	assert.NoError(t, r.wait(context.Background(), tick))
}

func TestReadinessShut(t *testing.T) {
	var r readiness
	tick := r.snapshot()
	done := make(chan error, 1)
	go func() {
		done <- r.wait(context.Background(), tick)
	}()
	require.Eventually(t, func() bool { return r.pending() == 1 }, time.Second, time.Millisecond)
	r.shut()
	assert.True(t, transport.IsClosed(<-done))
	assert.True(t, transport.IsClosed(r.wait(context.Background(), r.snapshot())))
}

func newTestReactor(t *testing.T) *Reactor {
	r, err := New(zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, r.Close())
	})
	return r
}

func testPair(t *testing.T, r *Reactor) (*Stream, *Stream) {
	ctx := context.Background()
	ln, err := r.Listen(ctx, transport.NewEndpoint("127.0.0.1", 0), transport.DefaultListenOptions())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ln.Close()
	})
	port := ln.Addr().(*net.TCPAddr).Port
	client, err := r.Connect(ctx, transport.NewEndpoint("127.0.0.1", uint16(port)), transport.DefaultDialOptions())
	require.NoError(t, err)
	server, err := ln.Accept(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func TestCancelledReceiveLeavesNoWaiter(t *testing.T) {
	r := newTestReactor(t)
	client, server := testPair(t, r)

	for i := 0; i < 8; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		_, err := server.Receive(ctx, make([]byte, 4))
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Zero(t, server.src.Waiters())

	n, err := client.Send(context.Background(), []byte("ok"))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	buf := make([]byte, 4)
	n, err = server.Receive(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(buf[:n]))
}

func TestCloseDeregisters(t *testing.T) {
	r := newTestReactor(t)
	before := r.Len()
	client, server := testPair(t, r)
	assert.Equal(t, before+3, r.Len())

	require.NoError(t, client.Close())
	require.NoError(t, server.Close())
	assert.Equal(t, before+1, r.Len())
	assert.NoError(t, client.src.Close())
}

func TestReactorCloseFailsWaiters(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	ln, err := r.Listen(context.Background(), transport.NewEndpoint("127.0.0.1", 0), transport.DefaultListenOptions())
	require.NoError(t, err)
	defer func() {
		_ = ln.Close()
	}()

	done := make(chan error, 1)
	go func() {
		_, acceptErr := ln.Accept(context.Background())
		done <- acceptErr
	}()
	require.Eventually(t, func() bool { return ln.src.Waiters() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, r.Close())
	assert.True(t, transport.IsListenerClosed(<-done))
	assert.NoError(t, r.Close())

	_, err = r.Register(0)
	assert.True(t, errors.Is(err, ErrReactorClosed))
}

func TestDefaultRestartsAfterClose(t *testing.T) {
	first, err := Default(nil)
	require.NoError(t, err)
	again, err := Default(nil)
	require.NoError(t, err)
	assert.Same(t, first, again)

	require.NoError(t, first.Close())
	assert.True(t, first.Closed())

	next, err := Default(nil)
	require.NoError(t, err)
	assert.NotSame(t, first, next)
	assert.False(t, next.Closed())

	ln, err := Listen(context.Background(), transport.NewEndpoint("127.0.0.1", 0), transport.DefaultListenOptions())
	require.NoError(t, err)
	assert.NoError(t, ln.Close())
}
