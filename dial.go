package sock

import (
	"context"

	"go.uber.org/zap"
)

// Connect opens a stream to endpoint, trying each resolved address in
// turn. It blocks until the connection is established, fails, or ctx ends.
func Connect(ctx context.Context, endpoint Endpoint, opts ...Option) (*Stream, error) {
	options, err := buildOptions(opConnect, opts)
	if err != nil {
		return nil, err
	}
	handle, err := backendImpl{}.Connect(ctx, endpoint, options.dialOptions())
	err = wrapError(opConnect, endpoint, err)
	observe(opConnect, err)
	if err != nil {
		options.Logger.Debug("connect failed", zap.Stringer("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	return newStream(handle, endpoint, options.Logger), nil
}

// Dial is Connect with a "host:port" address.
func Dial(ctx context.Context, address string, opts ...Option) (*Stream, error) {
	endpoint, err := ParseEndpoint(address)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, endpoint, opts...)
}

// Listen binds endpoint. Port zero picks a free port; an empty host binds
// every local address.
func Listen(ctx context.Context, endpoint Endpoint, opts ...Option) (*Listener, error) {
	options, err := buildOptions(opListen, opts)
	if err != nil {
		return nil, err
	}
	handle, err := backendImpl{}.Listen(ctx, endpoint, options.listenOptions())
	err = wrapError(opListen, endpoint, err)
	observe(opListen, err)
	if err != nil {
		return nil, err
	}
	return newListener(handle, options.Logger), nil
}
