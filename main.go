package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tcforge/internal/tcforge"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// External commands share our process group and receive the same
	// signal; nothing in flight is cleaned up beyond that.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		fmt.Printf("\nReceived %v, terminating\n", sig)
		cancel()
		os.Exit(130)
	}()

	if err := tcforge.Execute(ctx); err != nil {
		tcforge.ReportError(err)
		os.Exit(1)
	}
}
