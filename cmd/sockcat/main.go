// Sockcat is a netcat-style TCP tool built on the sock package.
//
// Rebuild with -tags reactor_socket to run the same session on the reactor
// backend; --version reports which one is linked in.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "sockcat: %v\n", err)
		os.Exit(1)
	}
}
