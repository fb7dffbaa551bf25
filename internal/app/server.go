package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

		sig := <-sigint
		slog.Info("shutdown signal received", "signal", sig.String())

		terminateChan <- struct{}{}
		close(terminateChan)
	}()

	return terminateChan
}

// Stop stops accepting requests, waits for running dataset jobs and then
// closes the remaining resources in registration order.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	slog.InfoContext(ctx, "waiting for dataset jobs to finish")
	done := make(chan error, 1)
	go func() { done <- a.goroutine.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
		}
	case <-ctx.Done():
		slog.WarnContext(ctx, "shutdown deadline reached, cancelling dataset jobs")
		a.cancel()
		<-done
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}

	a.cancel()
	slog.InfoContext(ctx, "application gracefully shutdown")
}
