//go:build unix

package reactor

import (
	"errors"

	"golang.org/x/sys/unix"
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "reactor"
)

const (
	opConnect = "connect"
	opListen  = "listen"
	opAccept  = "accept"
	opSend    = "send"
	opReceive = "receive"
)

func ignoreNotConnected(err error) error {
	if errors.Is(err, unix.ENOTCONN) {
		return nil
	}
	return err
}
