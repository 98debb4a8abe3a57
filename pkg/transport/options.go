package transport

import (
	"time"

	"go.uber.org/zap"
)

// StreamOptions are socket settings applied to every stream.
type StreamOptions struct {
	// KeepAlive is the keep-alive probe period. Zero selects 15s
	// and a negative value disables keep-alive.
	KeepAlive time.Duration
	NoDelay   bool
	// SendBufferSize and ReceiveBufferSize leave the system default when zero.
	SendBufferSize    int
	ReceiveBufferSize int
}

type DialOptions struct {
	StreamOptions
	Logger *zap.Logger
}

type ListenOptions struct {
	StreamOptions
	// Backlog zero uses the system maximum.
	Backlog   int
	ReuseAddr bool
	Logger    *zap.Logger
}

func DefaultStreamOptions() StreamOptions {
	return StreamOptions{NoDelay: true}
}

func DefaultDialOptions() DialOptions {
	return DialOptions{StreamOptions: DefaultStreamOptions()}
}

func DefaultListenOptions() ListenOptions {
	return ListenOptions{StreamOptions: DefaultStreamOptions(), ReuseAddr: true}
}

// LoggerOrNop never returns nil.
func LoggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
