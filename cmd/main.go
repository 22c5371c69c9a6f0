package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout)
	if err := app.RunContext(ctx, os.Args); err != nil {
		// Write directly since the logger may not be initialized yet
		os.Stderr.WriteString("swimrate: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
