//go:build linux

package sys

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	somaxconn   = unix.SOMAXCONN
	backlogOnce = sync.Once{}
)

// MaxListenerBacklog reads net.core.somaxconn once and caches it.
func MaxListenerBacklog() int {
	backlogOnce.Do(func() {
		fd, err := os.Open("/proc/sys/net/core/somaxconn")
		if err != nil {
			return
		}
		defer func() {
			_ = fd.Close()
		}()
		rd := bufio.NewReader(fd)
		l, readLineErr := rd.ReadString('\n')
		if readLineErr != nil {
			return
		}
		fields := strings.Fields(l)
		if len(fields) == 0 {
			return
		}
		n, parseErr := strconv.Atoi(fields[0])
		if parseErr != nil || n <= 0 {
			return
		}
		if n > 1<<16-1 {
			n = maxAckBacklog(n)
		}
		somaxconn = n
	})
	return somaxconn
}

// Linux 4.1 widened sk_max_ack_backlog from 16 to 32 bits.
func maxAckBacklog(n int) int {
	major, minor := kernelVersion()
	size := 16
	if major > 4 || (major == 4 && minor >= 1) {
		size = 32
	}
	var maxAck uint = 1<<size - 1
	if uint(n) > maxAck {
		n = int(maxAck)
	}
	return n
}

func kernelVersion() (major int, minor int) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return
	}
	release := unix.ByteSliceToString(uname.Release[:])
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return
	}
	major, _ = strconv.Atoi(parts[0])
	minor, _ = strconv.Atoi(strings.TrimFunc(parts[1], func(r rune) bool { return r < '0' || r > '9' }))
	return
}
