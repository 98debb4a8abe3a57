//go:build unix

// Package reactor is the socket backend built on a dedicated readiness
// loop. One goroutine locked to its own OS thread waits on epoll or kqueue
// and wakes the operations parked on each registered descriptor; the
// system calls themselves run on the calling goroutine.
package reactor

import (
	stderrors "errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var ErrReactorClosed = errors.Define("reactor closed")

const (
	eventBatch = 128
	// consecutive poll failures tolerated before the reactor gives up
	maxWaitFailures = 16
	maxWaitBackoff  = 100 * time.Millisecond
)

type event struct {
	fd       int
	readable bool
	writable bool
}

// poller is the platform readiness queue. Descriptors are registered
// edge-triggered for both directions.
type poller interface {
	add(fd int) error
	del(fd int) error
	wait(events []event) (int, error)
	wakeup() error
	close() error
}

type Reactor struct {
	poller  poller
	logger  *zap.Logger
	mu      sync.RWMutex
	sources map[int]*Source
	closed  atomic.Bool
	done    chan struct{}
}

var (
	defaultMu      sync.Mutex
	defaultReactor *Reactor
)

// Default returns the process-wide reactor, starting it on first use and
// again after the previous one stopped. The logger of the caller that
// starts it names the reactor's log entries.
func Default(logger *zap.Logger) (*Reactor, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReactor != nil && !defaultReactor.Closed() {
		return defaultReactor, nil
	}
	r, err := New(logger)
	if err != nil {
		return nil, err
	}
	defaultReactor = r
	return r, nil
}

// New starts a reactor with its own polling thread.
func New(logger *zap.Logger) (*Reactor, error) {
	p, err := newPoller()
	if err != nil {
		return nil, errors.New("reactor start failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(err))
	}
	return start(p, logger), nil
}

func start(p poller, logger *zap.Logger) *Reactor {
	r := &Reactor{
		poller:  p,
		logger:  transport.LoggerOrNop(logger).Named("reactor"),
		sources: make(map[int]*Source),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Reactor) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.done)

	r.logger.Debug("reactor started")
	events := make([]event, eventBatch)
	failures := 0
	for {
		n, err := r.poller.wait(events)
		if r.closed.Load() {
			break
		}
		if err != nil {
			failures++
			if fatalWaitError(err) || failures >= maxWaitFailures {
				r.logger.Error("reactor wait failed, stopping", zap.Error(err), zap.Int("failures", failures))
				r.closed.Store(true)
				break
			}
			r.logger.Warn("reactor wait failed", zap.Error(err), zap.Int("failures", failures))
			time.Sleep(min(time.Duration(failures)*time.Millisecond, maxWaitBackoff))
			continue
		}
		failures = 0
		r.mu.RLock()
		for _, ev := range events[:n] {
			src := r.sources[ev.fd]
			if src == nil {
				continue
			}
			if ev.readable {
				src.read.wake()
			}
			if ev.writable {
				src.write.wake()
			}
		}
		r.mu.RUnlock()
	}

	r.mu.Lock()
	for fd, src := range r.sources {
		src.read.shut()
		src.write.shut()
		delete(r.sources, fd)
	}
	r.mu.Unlock()
	if err := r.poller.close(); err != nil {
		r.logger.Warn("reactor poller close failed", zap.Error(err))
	}
	r.logger.Debug("reactor stopped")
}

// fatalWaitError reports poll failures that mean the poller itself is gone.
func fatalWaitError(err error) bool {
	return stderrors.Is(err, unix.EBADF) || stderrors.Is(err, unix.EINVAL) || stderrors.Is(err, unix.EFAULT)
}

// Closed reports whether the reactor has stopped, by Close or after its
// poller failed.
func (r *Reactor) Closed() bool {
	return r.closed.Load()
}

// Register adds fd to the readiness queue. The returned source owns fd.
func (r *Reactor) Register(fd int) (*Source, error) {
	if r.closed.Load() {
		return nil, ErrReactorClosed
	}
	src := &Source{fd: fd, reactor: r}
	r.mu.Lock()
	r.sources[fd] = src
	r.mu.Unlock()
	if err := r.poller.add(fd); err != nil {
		r.mu.Lock()
		delete(r.sources, fd)
		r.mu.Unlock()
		return nil, err
	}
	// the loop may have drained the table while fd was being added
	if r.closed.Load() {
		_ = r.deregister(src)
		return nil, ErrReactorClosed
	}
	return src, nil
}

func (r *Reactor) deregister(src *Source) error {
	r.mu.Lock()
	if r.sources[src.fd] == src {
		delete(r.sources, src.fd)
	}
	r.mu.Unlock()
	if r.closed.Load() {
		return nil
	}
	return r.poller.del(src.fd)
}

// Len reports how many descriptors are registered.
func (r *Reactor) Len() int {
	r.mu.RLock()
	n := len(r.sources)
	r.mu.RUnlock()
	return n
}

// Close stops the polling thread and fails every parked operation.
// Registered descriptors stay open; their owners close them.
func (r *Reactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := r.poller.wakeup(); err != nil {
		return err
	}
	<-r.done
	return nil
}
