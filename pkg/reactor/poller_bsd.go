//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package reactor

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

type kqueue struct {
	fd  int
	r   int
	w   int
	raw []unix.Kevent_t
}

func newPoller() (poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	unix.CloseOnExec(fd)
	var pipe [2]int
	syscall.ForkLock.RLock()
	err = unix.Pipe(pipe[:])
	if err == nil {
		unix.CloseOnExec(pipe[0])
		unix.CloseOnExec(pipe[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("pipe", err)
	}
	p := &kqueue{fd: fd, r: pipe[0], w: pipe[1], raw: make([]unix.Kevent_t, eventBatch)}
	if err = unix.SetNonblock(p.r, true); err == nil {
		err = unix.SetNonblock(p.w, true)
	}
	if err == nil {
		var change [1]unix.Kevent_t
		unix.SetKevent(&change[0], p.r, unix.EVFILT_READ, unix.EV_ADD)
		_, err = unix.Kevent(fd, change[:], nil, nil)
	}
	if err != nil {
		_ = p.close()
		return nil, os.NewSyscallError("kevent", err)
	}
	return p, nil
}

func (p *kqueue) add(fd int) error {
	var changes [2]unix.Kevent_t
	unix.SetKevent(&changes[0], fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_CLEAR)
	unix.SetKevent(&changes[1], fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_CLEAR)
	_, err := unix.Kevent(p.fd, changes[:], nil, nil)
	return os.NewSyscallError("kevent", err)
}

func (p *kqueue) del(fd int) error {
	var changes [2]unix.Kevent_t
	unix.SetKevent(&changes[0], fd, unix.EVFILT_READ, unix.EV_DELETE)
	unix.SetKevent(&changes[1], fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	_, err := unix.Kevent(p.fd, changes[:], nil, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return os.NewSyscallError("kevent", err)
}

func (p *kqueue) wait(events []event) (int, error) {
	raw := p.raw
	if len(events) < len(raw) {
		raw = raw[:len(events)]
	}
	n, err := unix.Kevent(p.fd, nil, raw, nil)
	if err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, os.NewSyscallError("kevent", err)
	}
	count := 0
	for _, ev := range raw[:n] {
		fd := int(ev.Ident)
		if fd == p.r {
			var buf [64]byte
			for {
				if rn, _ := unix.Read(p.r, buf[:]); rn <= 0 {
					break
				}
			}
			continue
		}
		e := event{fd: fd}
		switch ev.Filter {
		case unix.EVFILT_READ:
			e.readable = true
		case unix.EVFILT_WRITE:
			e.writable = true
		}
		if ev.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0 {
			e.readable = true
			e.writable = true
		}
		events[count] = e
		count++
	}
	return count, nil
}

func (p *kqueue) wakeup() error {
	_, err := unix.Write(p.w, []byte{1})
	if err == unix.EAGAIN {
		return nil
	}
	return os.NewSyscallError("write", err)
}

func (p *kqueue) close() error {
	err := unix.Close(p.r)
	if closeErr := unix.Close(p.w); err == nil {
		err = closeErr
	}
	if closeErr := unix.Close(p.fd); err == nil {
		err = closeErr
	}
	return os.NewSyscallError("close", err)
}
