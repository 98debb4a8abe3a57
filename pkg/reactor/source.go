//go:build unix

package reactor

import (
	"os"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// Source is a descriptor registered with a reactor. It owns the descriptor:
// system calls run between acquire and release, and Close only closes the
// descriptor once none are in flight, so a recycled number is never touched.
type Source struct {
	fd      int
	reactor *Reactor
	read    readiness
	write   readiness
	ref     sync.RWMutex
	closing bool
}

func (s *Source) Fd() int {
	return s.fd
}

// acquire pins the descriptor for one system call.
func (s *Source) acquire() bool {
	s.ref.RLock()
	if s.closing {
		s.ref.RUnlock()
		return false
	}
	return true
}

func (s *Source) release() {
	s.ref.RUnlock()
}

// Waiters reports how many operations are parked on the source.
func (s *Source) Waiters() int {
	return s.read.pending() + s.write.pending()
}

// Close wakes every waiter with ErrClosed, waits for in-flight calls,
// deregisters and closes the descriptor. It is idempotent.
func (s *Source) Close() error {
	s.read.shut()
	s.write.shut()
	s.ref.Lock()
	if s.closing {
		s.ref.Unlock()
		return nil
	}
	s.closing = true
	s.ref.Unlock()
	return multierr.Append(
		s.reactor.deregister(s),
		os.NewSyscallError("close", unix.Close(s.fd)),
	)
}
