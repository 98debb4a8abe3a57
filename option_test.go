package sock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBuildOptions_Defaults(t *testing.T) {
	options, err := buildOptions(opConnect, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultKeepAlive, options.KeepAlive)
	assert.True(t, options.NoDelay)
	assert.True(t, options.ReuseAddr)
	assert.Zero(t, options.Backlog)
	assert.NotNil(t, options.Logger)
}

func TestBuildOptions_Apply(t *testing.T) {
	logger := zaptest.NewLogger(t)
	options, err := buildOptions(opListen, []Option{
		WithKeepAlive(-1),
		WithNoDelay(false),
		WithSendBufferSize(1 << 16),
		WithReceiveBufferSize(1 << 17),
		WithBacklog(64),
		WithReuseAddr(false),
		WithLogger(logger),
		nil,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), options.KeepAlive)
	assert.False(t, options.NoDelay)
	assert.Same(t, logger, options.Logger)

	lo := options.listenOptions()
	assert.Equal(t, 64, lo.Backlog)
	assert.False(t, lo.ReuseAddr)
	assert.Equal(t, 1<<16, lo.SendBufferSize)
	assert.Equal(t, 1<<17, lo.ReceiveBufferSize)

	do := options.dialOptions()
	assert.Equal(t, time.Duration(-1), do.KeepAlive)
	assert.NotNil(t, do.Logger)
}

func TestBuildOptions_Invalid(t *testing.T) {
	cases := map[string]Option{
		"send buffer":    WithSendBufferSize(-1),
		"receive buffer": WithReceiveBufferSize(-1),
		"backlog":        WithBacklog(-5),
		"logger":         WithLogger(nil),
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := buildOptions(opConnect, []Option{opt})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, opConnect, e.Op)
			assert.Equal(t, ReasonInvalidInput, e.Reason)
		})
	}
}
