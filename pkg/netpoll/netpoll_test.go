//go:build unix

package netpoll

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/brickingsoft/sock/pkg/transport"
	"github.com/brickingsoft/sock/pkg/transport/transporttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBackend(t *testing.T) {
	transporttest.Run[*Stream, *Listener](t, Backend{})
}

func TestWatchRestoresDeadline(t *testing.T) {
	client, server := net.Pipe()
	defer func() {
		_ = client.Close()
		_ = server.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	stop := watch(ctx, server.SetReadDeadline)
	_, err := server.Read(make([]byte, 1))
	stop()
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)

	// the deadline is cleared again, so a later read waits for data
	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = client.Write([]byte("x"))
	}()
	n, err := server.Read(make([]byte, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWatchWithoutDone(t *testing.T) {
	stop := watch(context.Background(), func(time.Time) error {
		t.Fatal("deadline set without a done channel")
		return nil
	})
	stop()
}

func TestListenBacklogAndReuse(t *testing.T) {
	options := transport.DefaultListenOptions()
	options.Backlog = 16
	options.ReuseAddr = false
	ln, err := Listen(context.Background(), transport.NewEndpoint("127.0.0.1", 0), options)
	require.NoError(t, err)
	defer func() {
		_ = ln.Close()
	}()
	assert.NotZero(t, ln.Addr().(*net.TCPAddr).Port)
}

func TestAcceptAfterCloseDropsQueuedConnection(t *testing.T) {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer ln.Close()

	for i := 0; i < 64; i++ {
		conn, dialErr := net.DialTCP("tcp", nil, ln.Addr().(*net.TCPAddr))
		require.NoError(t, dialErr)

		l := &Listener{
			ln:      ln,
			logger:  zap.NewNop(),
			results: make(chan acceptResult, 1),
			done:    make(chan struct{}),
		}
		l.results <- acceptResult{conn: conn}
		close(l.done)

		stream, acceptErr := l.Accept(context.Background())
		assert.Nil(t, stream)
		assert.True(t, transport.IsListenerClosed(acceptErr), "round %d: %v", i, acceptErr)
		if len(l.results) == 0 {
			_, writeErr := conn.Write([]byte("x"))
			assert.ErrorIs(t, writeErr, net.ErrClosed, "round %d", i)
		}
		_ = conn.Close()
	}
}
