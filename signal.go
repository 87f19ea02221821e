package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// shutdownContext returns a context canceled by the first SIGINT or SIGTERM.
// Cancellation aborts in-flight transfers, and get removes its .partial
// files on the way out. Default signal handling is restored right after, so
// a second signal terminates the process at once.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-ctx.Done()
		stop()

		if parent.Err() == nil {
			logger.Info("received signal, cancelling; signal again to exit immediately")
		}
	}()

	return ctx
}
