package transport

import (
	stderrors "errors"

	"github.com/brickingsoft/errors"
)

var (
	ErrClosed           = errors.Define("use of closed stream")
	ErrListenerClosed   = errors.Define("listener closed")
	ErrEmptyBuffer      = errors.Define("receive buffer is empty")
	ErrInvalidDirection = errors.Define("invalid shutdown direction")
	ErrInvalidEndpoint  = errors.Define("invalid endpoint")
	ErrUnsupported      = errors.Define("not supported on this platform")
)

const errMetaAddressKey = "address"

func IsClosed(err error) bool {
	return errors.Is(causeOf(err), ErrClosed)
}

func IsListenerClosed(err error) bool {
	return errors.Is(causeOf(err), ErrListenerClosed)
}

// IsInvalidInput reports errors caused by a bad argument rather than the socket.
func IsInvalidInput(err error) bool {
	err = causeOf(err)
	return errors.Is(err, ErrEmptyBuffer) || errors.Is(err, ErrInvalidDirection) || errors.Is(err, ErrInvalidEndpoint)
}

func IsUnsupported(err error) bool {
	return errors.Is(causeOf(err), ErrUnsupported)
}

// OpError is a failed backend operation. Err is kept as is, so the
// syscall.Errno or *net.DNSError behind it stays reachable with errors.As.
type OpError struct {
	Op      string
	Address string
	Err     error
}

func (e *OpError) Error() string {
	s := e.Op
	if e.Address != "" {
		s += " " + e.Address
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError wraps err with the failing operation and the peer or local address.
func NewOpError(op string, address string, err error) error {
	return &OpError{Op: op, Address: address, Err: err}
}

func causeOf(err error) error {
	var opErr *OpError
	for stderrors.As(err, &opErr) {
		err = opErr.Err
	}
	return err
}
