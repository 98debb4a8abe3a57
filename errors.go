package sock

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/brickingsoft/sock/pkg/transport"
)

// Kind is the broad class of a failure.
type Kind int

const (
	KindConnect Kind = iota + 1
	KindAccept
	KindIO
	KindClosedResource
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindAccept:
		return "accept"
	case KindIO:
		return "io"
	case KindClosedResource:
		return "closed resource"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Reason narrows a Kind down to the condition that caused it.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRefused
	ReasonTimedOut
	ReasonUnresolved
	ReasonCanceled
	ReasonListenerClosed
	ReasonBrokenPipe
	ReasonReset
	ReasonWouldBlock
	ReasonInvalidInput
	ReasonResourceExhausted
	ReasonOther
)

var reasonNames = [...]string{
	ReasonNone:              "",
	ReasonRefused:           "refused",
	ReasonTimedOut:          "timed out",
	ReasonUnresolved:        "unresolved",
	ReasonCanceled:          "canceled",
	ReasonListenerClosed:    "listener closed",
	ReasonBrokenPipe:        "broken pipe",
	ReasonReset:             "reset",
	ReasonWouldBlock:        "would block",
	ReasonInvalidInput:      "invalid input",
	ReasonResourceExhausted: "resource exhausted",
	ReasonOther:             "other",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return "unknown"
	}
	return reasonNames[r]
}

// Error is the only error type returned by this package.
//
// Err holds the underlying cause and is limited to context.Canceled,
// context.DeadlineExceeded or a syscall.Errno, so errors.Is works against
// those values whichever backend is built in.
type Error struct {
	Op       string
	Kind     Kind
	Reason   Reason
	Endpoint Endpoint
	Detail   string
	Err      error
}

var (
	ErrClosedResource = &Error{Kind: KindClosedResource}
	ErrListenerClosed = &Error{Kind: KindAccept, Reason: ReasonListenerClosed}
	ErrRefused        = &Error{Kind: KindConnect, Reason: ReasonRefused}
	ErrUnresolved     = &Error{Kind: KindConnect, Reason: ReasonUnresolved}
	ErrTimedOut       = &Error{Reason: ReasonTimedOut}
	ErrCanceled       = &Error{Reason: ReasonCanceled}
	ErrConfiguration  = &Error{Kind: KindConfiguration}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("sock: ")
	b.WriteString(e.Op)
	if !e.Endpoint.IsZero() {
		b.WriteByte(' ')
		b.WriteString(e.Endpoint.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Reason != ReasonNone {
		b.WriteString(" (")
		b.WriteString(e.Reason.String())
		b.WriteByte(')')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a sentinel *Error by kind, and by reason when the sentinel
// sets one. A sentinel without a kind matches any kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != 0 && t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

func (e *Error) Timeout() bool {
	return e.Reason == ReasonTimedOut
}

// Temporary reports failures worth retrying as is.
func (e *Error) Temporary() bool {
	switch e.Reason {
	case ReasonTimedOut, ReasonRefused, ReasonWouldBlock:
		return true
	default:
		return false
	}
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosedResource)
}

func IsListenerClosed(err error) bool {
	return errors.Is(err, ErrListenerClosed)
}

func IsRefused(err error) bool {
	return errors.Is(err, ErrRefused)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimedOut)
}

func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

func newConfigError(op string, detail string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindConfiguration,
		Reason: ReasonInvalidInput,
		Detail: detail,
		Err:    syscall.EINVAL,
	}
}

func kindOf(op string) Kind {
	switch op {
	case opConnect:
		return KindConnect
	case opAccept:
		return KindAccept
	default:
		return KindIO
	}
}

// wrapError converts a backend failure into an *Error. The backend's own
// error values are dropped; only the normalized cause survives.
func wrapError(op string, endpoint Endpoint, err error) error {
	if err == nil {
		return nil
	}
	var sockErr *Error
	if errors.As(err, &sockErr) {
		return sockErr
	}
	e := &Error{Op: op, Kind: kindOf(op), Endpoint: endpoint}
	switch {
	case transport.IsListenerClosed(err):
		e.Kind, e.Reason = KindAccept, ReasonListenerClosed
		return e
	case transport.IsClosed(err):
		e.Kind = KindClosedResource
		return e
	case transport.IsInvalidInput(err):
		e.Reason, e.Detail, e.Err = ReasonInvalidInput, err.Error(), syscall.EINVAL
		return e
	case errors.Is(err, context.Canceled):
		e.Reason, e.Err = ReasonCanceled, context.Canceled
		return e
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		e.Reason, e.Err = ReasonTimedOut, context.DeadlineExceeded
		return e
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		e.Reason, e.Detail = ReasonUnresolved, dnsErr.Err
		if dnsErr.IsTimeout {
			e.Reason = ReasonTimedOut
		}
		return e
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.Reason, e.Err = reasonOfErrno(errno), errno
		return e
	}
	e.Reason, e.Detail = ReasonOther, err.Error()
	return e
}

func reasonOfErrno(errno syscall.Errno) Reason {
	switch errno {
	case syscall.ECONNREFUSED:
		return ReasonRefused
	case syscall.ETIMEDOUT:
		return ReasonTimedOut
	case syscall.EPIPE:
		return ReasonBrokenPipe
	case syscall.ECONNRESET, syscall.ECONNABORTED:
		return ReasonReset
	case syscall.EAGAIN:
		return ReasonWouldBlock
	case syscall.EMFILE, syscall.ENFILE, syscall.ENOBUFS, syscall.ENOMEM:
		return ReasonResourceExhausted
	case syscall.EINVAL:
		return ReasonInvalidInput
	default:
		return ReasonOther
	}
}
