package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/autosheeeew/ui-inspector/cli"
)

func main() {
	// cancel the command context on SIGINT/SIGTERM so long-running
	// commands (mirror, server) shut down their sessions cleanly
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run command in goroutine
	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx)
	}()

	select {
	case <-ctx.Done():
		stop()
		// give the command a chance to finish its cleanup
		if err := <-done; err != nil && err != context.Canceled {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case err := <-done:
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
