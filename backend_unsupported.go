//go:build !unix

package sock

// Both backends need a unix socket layer.
var _ = ConfigurationError_sock_requires_a_unix_platform
