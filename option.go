package sock

import (
	"time"

	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/zap"
)

type Options struct {
	KeepAlive         time.Duration
	NoDelay           bool
	SendBufferSize    int
	ReceiveBufferSize int
	Backlog           int
	ReuseAddr         bool
	Logger            *zap.Logger
}

type Option func(options *Options) (err error)

// WithKeepAlive
// sets the keep-alive probe period. A negative period disables keep-alive.
//
// Default is DefaultKeepAlive.
func WithKeepAlive(period time.Duration) Option {
	return func(options *Options) (err error) {
		options.KeepAlive = period
		return
	}
}

// WithNoDelay
// sets TCP_NODELAY. Default is true.
func WithNoDelay(noDelay bool) Option {
	return func(options *Options) (err error) {
		options.NoDelay = noDelay
		return
	}
}

// WithSendBufferSize
// sets SO_SNDBUF. Zero keeps the system default.
func WithSendBufferSize(size int) Option {
	return func(options *Options) (err error) {
		if size < 0 {
			err = newConfigError("option", "send buffer size must not be negative")
			return
		}
		options.SendBufferSize = size
		return
	}
}

// WithReceiveBufferSize
// sets SO_RCVBUF. Zero keeps the system default.
func WithReceiveBufferSize(size int) Option {
	return func(options *Options) (err error) {
		if size < 0 {
			err = newConfigError("option", "receive buffer size must not be negative")
			return
		}
		options.ReceiveBufferSize = size
		return
	}
}

// WithBacklog
// sets the listen queue length. Zero takes the system maximum.
// Only Listen uses it.
func WithBacklog(backlog int) Option {
	return func(options *Options) (err error) {
		if backlog < 0 {
			err = newConfigError("option", "backlog must not be negative")
			return
		}
		options.Backlog = backlog
		return
	}
}

// WithReuseAddr
// sets SO_REUSEADDR on listening sockets. Default is true.
func WithReuseAddr(reuse bool) Option {
	return func(options *Options) (err error) {
		options.ReuseAddr = reuse
		return
	}
}

// WithLogger
// replaces the package logger for one call and the handles it creates.
func WithLogger(logger *zap.Logger) Option {
	return func(options *Options) (err error) {
		if logger == nil {
			err = newConfigError("option", "logger is nil")
			return
		}
		options.Logger = logger
		return
	}
}

func buildOptions(op string, opts []Option) (Options, error) {
	options := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			if e, ok := err.(*Error); ok {
				e.Op = op
			}
			return Options{}, err
		}
	}
	if options.Logger == nil {
		options.Logger = currentLogger()
	}
	return options, nil
}

func (options Options) streamOptions() transport.StreamOptions {
	return transport.StreamOptions{
		KeepAlive:         options.KeepAlive,
		NoDelay:           options.NoDelay,
		SendBufferSize:    options.SendBufferSize,
		ReceiveBufferSize: options.ReceiveBufferSize,
	}
}

func (options Options) dialOptions() transport.DialOptions {
	return transport.DialOptions{
		StreamOptions: options.streamOptions(),
		Logger:        options.Logger,
	}
}

func (options Options) listenOptions() transport.ListenOptions {
	return transport.ListenOptions{
		StreamOptions: options.streamOptions(),
		Backlog:       options.Backlog,
		ReuseAddr:     options.ReuseAddr,
		Logger:        options.Logger,
	}
}
