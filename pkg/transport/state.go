package transport

import (
	"sync/atomic"
)

// State tracks the lifecycle flags shared by stream implementations.
// It is safe for concurrent use.
type State struct {
	closed    atomic.Bool
	readShut  atomic.Bool
	writeShut atomic.Bool
	eof       atomic.Bool
}

func (s *State) Closed() bool {
	return s.closed.Load()
}

// MarkClosed reports true only for the call that closed the stream.
func (s *State) MarkClosed() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *State) ReadAllowed() error {
	if s.closed.Load() || s.readShut.Load() || s.eof.Load() {
		return ErrClosed
	}
	return nil
}

func (s *State) WriteAllowed() error {
	if s.closed.Load() || s.writeShut.Load() {
		return ErrClosed
	}
	return nil
}

// ObserveEOF records a zero-byte read. It returns nil to the one caller
// that reports end of stream and ErrClosed to every later one.
func (s *State) ObserveEOF() error {
	if s.closed.Load() || s.readShut.Load() {
		return ErrClosed
	}
	if !s.eof.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

// Shutdown marks the halves named by dir and reports which of them were
// open until now. A closed stream reports neither.
func (s *State) Shutdown(dir Direction) (read bool, write bool) {
	if s.closed.Load() {
		return
	}
	if dir.Reads() {
		read = s.readShut.CompareAndSwap(false, true)
	}
	if dir.Writes() {
		write = s.writeShut.CompareAndSwap(false, true)
	}
	return
}
