package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brickingsoft/sock"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

// version is overridable at link time:
//
//	go build -ldflags "-X main.version=1.1.0"
var version = "1.0.0"

// Execute parses args and runs one connect or listen session.
func Execute(ctx context.Context, args []string) error {
	cfg := &Config{}
	fs := flag.NewFlagSet("sockcat", flag.ContinueOnError)

	fs.BoolVarP(&cfg.Listen, "listen", "l", false, "Listen mode")
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Local port number (listen mode)")
	fs.BoolVarP(&cfg.KeepOpen, "keep-open", "k", false, "Accept further connections after the first ends (with -l)")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Connect and accept timeout in seconds")

	fs.BoolVar(&cfg.NoDelay, "nodelay", sock.DefaultNoDelay, "Set TCP_NODELAY")
	fs.IntVar(&cfg.Backlog, "backlog", sock.DefaultBacklog, "Listen backlog, 0 for the system maximum")

	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Stats, "stats", false, "Print socket counters on exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and backend, then exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("sockcat %s (backend %s)\n", version, sock.BackendName)
		return nil
	}
	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	sock.SetLogger(logger)

	reg := prometheus.NewRegistry()
	if cfg.Stats {
		if err = sock.RegisterMetrics(reg); err != nil {
			return err
		}
		defer func() {
			if statsErr := writeStats(os.Stderr, reg); statsErr != nil {
				logger.Warn("stats", zap.Error(statsErr))
			}
		}()
	}

	run := &runner{
		cfg:    cfg,
		logger: logger,
		input:  readInput(os.Stdin),
		output: os.Stdout,
	}
	if cfg.Listen {
		return run.listen(ctx)
	}
	return run.connect(ctx)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `sockcat %s (backend %s)

Usage:
  sockcat [options] <host> <port>     Connect
  sockcat -l -p <port> [options]      Listen

Options:
`, version, sock.BackendName)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  sockcat -l -p 9000                  Listen on 9000
  echo HELLO | sockcat 127.0.0.1 9000 Send and half-close
  sockcat -k -l -p 9000 --stats -v    Serve repeatedly, print counters
`)
}
