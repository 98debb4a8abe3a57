//go:build unix

package reactor

import (
	"context"
	"errors"
	"net"
	"net/netip"

	"github.com/brickingsoft/sock/pkg/sys"
	"github.com/brickingsoft/sock/pkg/transport"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Connect resolves endpoint and tries each address in order until one
// accepts. The first failure is reported when all of them fail.
func Connect(ctx context.Context, endpoint transport.Endpoint, options transport.DialOptions) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := Default(options.Logger)
	if err != nil {
		return nil, err
	}
	return r.Connect(ctx, endpoint, options)
}

func (r *Reactor) Connect(ctx context.Context, endpoint transport.Endpoint, options transport.DialOptions) (*Stream, error) {
	logger := r.streamLogger(options.Logger)
	addrs, err := resolve(ctx, endpoint.Host(), netip.AddrFrom4([4]byte{127, 0, 0, 1}))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, transport.NewOpError(opConnect, endpoint.String(), err)
	}
	var firstErr error
	for _, addr := range addrs {
		stream, connErr := r.connect(ctx, netip.AddrPortFrom(addr, endpoint.Port()), options.StreamOptions, logger)
		if connErr == nil {
			logger.Debug("stream connected", zap.Stringer("endpoint", endpoint))
			return stream, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if firstErr == nil {
			firstErr = connErr
		}
	}
	return nil, transport.NewOpError(opConnect, endpoint.String(), firstErr)
}

func (r *Reactor) connect(ctx context.Context, addr netip.AddrPort, options transport.StreamOptions, logger *zap.Logger) (*Stream, error) {
	family := sys.Family(addr.Addr())
	sock, err := sys.NewSocket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, err
	}
	fd := sys.NewFd(sock, family, unix.SOCK_STREAM)
	if err = applyStreamOptions(fd, options); err != nil {
		_ = fd.Close()
		return nil, err
	}
	src, err := r.Register(sock)
	if err != nil {
		_ = fd.Close()
		return nil, err
	}
	if err = awaitConnect(ctx, fd, src, addr); err != nil {
		_ = src.Close()
		return nil, err
	}
	if fd.RemoteAddr() == nil {
		fd.SetRemoteAddr(net.TCPAddrFromAddrPort(addr))
	}
	_ = fd.LoadLocalAddr()
	return newStream(fd, src, logger), nil
}

func awaitConnect(ctx context.Context, fd *sys.Fd, src *Source, addr netip.AddrPort) error {
	tick := src.write.snapshot()
	inProgress, err := fd.Connect(addr)
	if err != nil || !inProgress {
		return err
	}
	for {
		if err = src.write.wait(ctx, tick); err != nil {
			return err
		}
		tick = src.write.snapshot()
		connected, connErr := fd.Connected()
		if connErr != nil {
			return connErr
		}
		if connected {
			return nil
		}
	}
}

// Listen binds endpoint and registers the listening socket. An empty host
// listens on every local address, dual-stack when the system allows it.
func Listen(ctx context.Context, endpoint transport.Endpoint, options transport.ListenOptions) (*Listener, error) {
	r, err := Default(options.Logger)
	if err != nil {
		return nil, err
	}
	return r.Listen(ctx, endpoint, options)
}

func (r *Reactor) Listen(ctx context.Context, endpoint transport.Endpoint, options transport.ListenOptions) (*Listener, error) {
	logger := r.streamLogger(options.Logger)
	sysOptions := sys.ListenOptions{Backlog: options.Backlog, ReuseAddr: options.ReuseAddr}

	var (
		fd  *sys.Fd
		err error
	)
	if endpoint.Host() == "" {
		fd, err = sys.ListenTCP(netip.AddrPortFrom(netip.IPv6Unspecified(), endpoint.Port()), sysOptions)
		if errors.Is(err, unix.EAFNOSUPPORT) || errors.Is(err, unix.EADDRNOTAVAIL) {
			fd, err = sys.ListenTCP(netip.AddrPortFrom(netip.IPv4Unspecified(), endpoint.Port()), sysOptions)
		}
	} else {
		var addrs []netip.Addr
		if addrs, err = resolve(ctx, endpoint.Host(), netip.IPv4Unspecified()); err == nil {
			fd, err = sys.ListenTCP(netip.AddrPortFrom(addrs[0], endpoint.Port()), sysOptions)
		}
	}
	if err != nil {
		return nil, transport.NewOpError(opListen, endpoint.String(), err)
	}
	return r.listener(fd, options, logger)
}

func (r *Reactor) listener(fd *sys.Fd, options transport.ListenOptions, logger *zap.Logger) (*Listener, error) {
	src, err := r.Register(fd.Socket())
	if err != nil {
		_ = fd.Close()
		return nil, transport.NewOpError(opListen, fd.LocalAddr().String(), err)
	}
	logger.Debug("listening", zap.Stringer("addr", fd.LocalAddr()))
	return &Listener{
		fd:      fd,
		src:     src,
		reactor: r,
		options: options.StreamOptions,
		logger:  logger.With(zap.Stringer("listener", fd.LocalAddr())),
	}, nil
}

func (r *Reactor) streamLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return r.logger
	}
	return logger.Named("reactor")
}

// resolve returns the addresses of host, or empty when host is empty.
// IP literals skip the resolver.
func resolve(ctx context.Context, host string, empty netip.Addr) ([]netip.Addr, error) {
	if host == "" {
		return []netip.Addr{empty}, nil
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	for i, addr := range addrs {
		addrs[i] = addr.Unmap()
	}
	return addrs, nil
}
