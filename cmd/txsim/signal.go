package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
)

// interruptContext returns a context cancelled by the first interrupt. A
// second interrupt is left to the default handler and kills the process.
func interruptContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("interrupt received, finishing current step", "signal", sig.String())
			signal.Stop(sigCh)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
