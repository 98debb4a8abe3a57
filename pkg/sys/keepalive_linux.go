//go:build linux

package sys

import (
	"os"

	"golang.org/x/sys/unix"
)

func setKeepAlivePeriod(sock int, secs int) error {
	if err := unix.SetsockoptInt(sock, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, secs); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(sock, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, secs))
}
