package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"boirates/internal/cli"
)

func main() {
	// Cancel the in-flight request on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], cli.Options{})
	cancel()
	os.Exit(code)
}
