//go:build unix

package netpoll

import (
	"context"
	"time"
)

var aLongTimeAgo = time.Unix(1, 0)

// watch interrupts a blocked call on one direction of a connection when ctx
// is done, by moving that direction's deadline into the past. The returned
// stop must be called once the call returned; it restores a zero deadline
// when the interrupt fired so the connection stays usable.
func watch(ctx context.Context, setDeadline func(time.Time) error) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}
	fired := make(chan struct{})
	stopWatch := context.AfterFunc(ctx, func() {
		_ = setDeadline(aLongTimeAgo)
		close(fired)
	})
	return func() {
		if stopWatch() {
			return
		}
		<-fired
		_ = setDeadline(time.Time{})
	}
}
