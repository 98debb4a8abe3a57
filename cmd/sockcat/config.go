package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/brickingsoft/sock"
)

// Config holds every tuneable for one sockcat run.
type Config struct {
	Host     string
	Port     int
	Listen   bool
	KeepOpen bool
	Timeout  time.Duration

	NoDelay bool
	Backlog int

	Verbose int
	Stats   bool
}

// Validate checks flag combinations before any socket is opened.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Listen {
		if c.Port == 0 {
			return fmt.Errorf("listen mode requires a port (-p)")
		}
	} else {
		if c.Host == "" {
			return fmt.Errorf("hostname required (use --help for usage)")
		}
		if c.Port == 0 {
			return fmt.Errorf("port required")
		}
		if c.KeepOpen {
			return fmt.Errorf("-k only applies to listen mode")
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Backlog < 0 {
		return fmt.Errorf("backlog must not be negative")
	}
	return nil
}

func (c *Config) Endpoint() sock.Endpoint {
	return sock.NewEndpoint(c.Host, uint16(c.Port))
}

func (c *Config) Options() []sock.Option {
	opts := []sock.Option{sock.WithNoDelay(c.NoDelay)}
	if c.Listen {
		opts = append(opts, sock.WithBacklog(c.Backlog))
	}
	return opts
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

func parsePositional(cfg *Config, remaining []string) error {
	if cfg.Listen {
		switch len(remaining) {
		case 0: // sockcat -l -p PORT
		case 1:
			cfg.Host = remaining[0]
		case 2:
			cfg.Host = remaining[0]
			port, err := parsePort(remaining[1])
			if err != nil {
				return err
			}
			cfg.Port = port
		default:
			return fmt.Errorf("too many arguments for listen mode")
		}
		return nil
	}

	switch len(remaining) {
	case 0:
		return fmt.Errorf("hostname required (use --help for usage)")
	case 1:
		return fmt.Errorf("port required")
	case 2:
	default:
		return fmt.Errorf("too many arguments")
	}
	cfg.Host = remaining[0]
	port, err := parsePort(remaining[1])
	if err != nil {
		return err
	}
	cfg.Port = port
	return nil
}
