// Package sock is a TCP stream socket API with two interchangeable
// backends selected when the program is built.
//
// The default backend, netpoll, parks goroutines on the Go runtime network
// poller. Building with -tags reactor_socket switches every call in this
// package to the reactor backend, a single OS thread running epoll or
// kqueue. Both satisfy the same contract: Send and Receive block only
// while the socket cannot make progress, cancelling their context leaves
// the stream usable with nothing half-transferred, Receive reports the
// peer's orderly close as 0 exactly once, and every failure is an *Error
// with the same Kind and Reason on either backend. Setting both
// netpoll_socket and reactor_socket fails the build.
//
// A Stream may have one Send and one Receive in flight at the same time;
// calls of the same kind must not overlap. Close may be called from any
// goroutine and wakes pending calls.
package sock

const (
	opConnect  = "connect"
	opListen   = "listen"
	opAccept   = "accept"
	opSend     = "send"
	opReceive  = "receive"
	opShutdown = "shutdown"
	opClose    = "close"
	opParse    = "parse"
)
