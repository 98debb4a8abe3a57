//go:build netpoll_socket && reactor_socket

package sock

// Exactly one backend may be selected. The identifier below is never
// defined, so the compiler rejects this combination of tags by name.
var _ = ConfigurationError_netpoll_socket_and_reactor_socket_are_mutually_exclusive
