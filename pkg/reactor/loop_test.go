//go:build unix

package reactor

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sys/unix"
)

// failingPoller fails the first failures waits with err, then parks until
// woken.
type failingPoller struct {
	err      error
	failures int32
	calls    atomic.Int32
	wake     chan struct{}
	closed   atomic.Bool
}

func newFailingPoller(err error, failures int32) *failingPoller {
	return &failingPoller{err: err, failures: failures, wake: make(chan struct{}, 1)}
}

func (p *failingPoller) add(int) error { return nil }
func (p *failingPoller) del(int) error { return nil }

func (p *failingPoller) wait([]event) (int, error) {
	if p.calls.Add(1) <= p.failures {
		return 0, p.err
	}
	<-p.wake
	return 0, nil
}

func (p *failingPoller) wakeup() error {
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

func (p *failingPoller) close() error {
	p.closed.Store(true)
	return nil
}

func TestLoopSurvivesTransientWaitErrors(t *testing.T) {
	p := newFailingPoller(os.NewSyscallError("epoll_wait", unix.ENOMEM), 3)
	r := start(p, zaptest.NewLogger(t))

	require.Eventually(t, func() bool { return p.calls.Load() > 3 }, time.Second, time.Millisecond)
	assert.False(t, r.Closed())

	src, err := r.Register(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	require.NoError(t, r.deregister(src))

	require.NoError(t, r.Close())
	assert.True(t, p.closed.Load())
}

func TestLoopStopsOnFatalWaitError(t *testing.T) {
	p := newFailingPoller(os.NewSyscallError("epoll_wait", unix.EBADF), 1)
	r := start(p, zaptest.NewLogger(t))

	require.Eventually(t, r.Closed, time.Second, time.Millisecond)
	<-r.done
	assert.True(t, p.closed.Load())
	_, err := r.Register(1 << 20)
	assert.Error(t, err)
}

func TestLoopStopsAfterRepeatedWaitErrors(t *testing.T) {
	p := newFailingPoller(os.NewSyscallError("epoll_wait", unix.ENOMEM), maxWaitFailures)
	r := start(p, zaptest.NewLogger(t))

	require.Eventually(t, r.Closed, 5*time.Second, time.Millisecond)
	<-r.done
	assert.EqualValues(t, maxWaitFailures, p.calls.Load())
}
