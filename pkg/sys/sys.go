//go:build unix

// Package sys wraps the raw socket calls used by the readiness backends.
package sys

import (
	"golang.org/x/sys/unix"
)

func boolint(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IgnoringEINTR retries fn while it reports EINTR.
func IgnoringEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}

// IgnoringEINTRIO is IgnoringEINTR for read and write calls.
// A failed call always reports zero bytes.
func IgnoringEINTRIO(fn func(fd int, p []byte) (int, error), fd int, p []byte) (int, error) {
	for {
		n, err := fn(fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			n = 0
		}
		return n, err
	}
}
