package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/brickingsoft/sock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"connect", Config{Host: "localhost", Port: 80}, false},
		{"listen", Config{Listen: true, Port: 9000, KeepOpen: true}, false},
		{"no host", Config{Port: 80}, true},
		{"no port", Config{Host: "localhost"}, true},
		{"listen no port", Config{Listen: true}, true},
		{"port range", Config{Host: "localhost", Port: 70000}, true},
		{"keep-open without listen", Config{Host: "localhost", Port: 80, KeepOpen: true}, true},
		{"negative timeout", Config{Host: "localhost", Port: 80, Timeout: -time.Second}, true},
		{"negative backlog", Config{Listen: true, Port: 80, Backlog: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParsePositional(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, parsePositional(cfg, []string{"example.com", "443"}))
	assert.Equal(t, "example.com", cfg.Host)
	assert.Equal(t, 443, cfg.Port)

	cfg = &Config{Listen: true, Port: 1}
	require.NoError(t, parsePositional(cfg, []string{"::1", "8080"}))
	assert.Equal(t, "::1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)

	assert.Error(t, parsePositional(&Config{}, nil))
	assert.Error(t, parsePositional(&Config{}, []string{"host"}))
	assert.Error(t, parsePositional(&Config{}, []string{"host", "http"}))
	assert.Error(t, parsePositional(&Config{}, []string{"host", "1", "2"}))
	assert.Error(t, parsePositional(&Config{Listen: true}, []string{"a", "1", "2"}))
}

func TestExecute_Version(t *testing.T) {
	assert.NoError(t, Execute(context.Background(), []string{"--version"}))
	assert.Error(t, Execute(context.Background(), []string{"--no-such-flag"}))
	assert.Error(t, Execute(context.Background(), []string{"onlyhost"}))
}

func TestSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ln, err := sock.Listen(ctx, sock.NewEndpoint("127.0.0.1", 0))
	require.NoError(t, err)
	defer ln.Close()

	echoed := make(chan string, 1)
	go func() {
		s, acceptErr := ln.Accept(ctx)
		if acceptErr != nil {
			echoed <- acceptErr.Error()
			return
		}
		defer s.Close()
		got, _ := io.ReadAll(s)
		_, _ = s.SendAll(ctx, bytes.ToUpper(got))
		_ = s.Shutdown(sock.ShutdownWrite)
		echoed <- string(got)
	}()

	var out bytes.Buffer
	r := &runner{
		cfg:    &Config{Host: "127.0.0.1", Port: int(ln.Endpoint().Port()), NoDelay: true},
		logger: zaptest.NewLogger(t),
		input:  readInput(strings.NewReader("hello")),
		output: &out,
	}
	require.NoError(t, r.connect(ctx))
	assert.Equal(t, "hello", <-echoed)
	assert.Equal(t, "HELLO", out.String())
}

func TestWriteStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "x_total", Help: "x"}, []string{"op"})
	reg.MustRegister(c)
	c.WithLabelValues("send").Add(3)

	var buf bytes.Buffer
	require.NoError(t, writeStats(&buf, reg))
	assert.Equal(t, "x_total{op=send} 3\n", buf.String())
}
