package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"radsim/internal/logging"
)

// HandleSignals returns a context that is cancelled on SIGTERM, or on SIGINT
// when no turn is running. A SIGINT during a turn cancels only that turn.
func (a *App) HandleSignals(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == os.Interrupt && a.Interrupt() {
					logging.Info("turn interrupted")
					continue
				}
				logging.Info("shutting down", "signal", sig.String())
				cancel()
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
