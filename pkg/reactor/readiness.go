//go:build unix

package reactor

import (
	"context"
	"sync"

	"github.com/brickingsoft/sock/pkg/transport"
)

// readiness tracks one direction of a source. The tick advances on every
// readiness event; an operation snapshots it before its system call and
// only parks when no event arrived in between, so edges are never lost.
type readiness struct {
	mu      sync.Mutex
	tick    uint64
	closed  bool
	next    uint64
	waiters map[uint64]chan struct{}
}

func (r *readiness) snapshot() uint64 {
	r.mu.Lock()
	tick := r.tick
	r.mu.Unlock()
	return tick
}

// wake records an event and releases every parked waiter.
func (r *readiness) wake() {
	r.mu.Lock()
	r.tick++
	r.release()
	r.mu.Unlock()
}

// shut releases every waiter with ErrClosed; later waits fail immediately.
func (r *readiness) shut() {
	r.mu.Lock()
	r.closed = true
	r.tick++
	r.release()
	r.mu.Unlock()
}

func (r *readiness) release() {
	for id, ch := range r.waiters {
		close(ch)
		delete(r.waiters, id)
	}
}

// wait parks until the tick moves past tick, the direction shuts or ctx is
// done. A cancelled waiter is removed before wait returns.
func (r *readiness) wait(ctx context.Context, tick uint64) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return transport.ErrClosed
	}
	if r.tick != tick {
		r.mu.Unlock()
		return nil
	}
	if r.waiters == nil {
		r.waiters = make(map[uint64]chan struct{})
	}
	id := r.next
	r.next++
	ch := make(chan struct{})
	r.waiters[id] = ch
	r.mu.Unlock()

	select {
	case <-ch:
		r.mu.Lock()
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return transport.ErrClosed
		}
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		delete(r.waiters, id)
		r.mu.Unlock()
		return ctx.Err()
	}
}

func (r *readiness) pending() int {
	r.mu.Lock()
	n := len(r.waiters)
	r.mu.Unlock()
	return n
}
