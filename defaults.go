package sock

import "time"

const (
	DefaultKeepAlive = 15 * time.Second
	DefaultNoDelay   = true
	DefaultReuseAddr = true
	// DefaultBacklog zero takes the system maximum.
	DefaultBacklog = 0
)

func defaultOptions() Options {
	return Options{
		KeepAlive: DefaultKeepAlive,
		NoDelay:   DefaultNoDelay,
		ReuseAddr: DefaultReuseAddr,
		Backlog:   DefaultBacklog,
	}
}
