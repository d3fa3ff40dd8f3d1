package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// startHTTPServer serves router until ctx is cancelled or the listener
// fails, then shuts down gracefully and runs application cleanup.
// Uploads wait for their import, so shutdown allows in-flight requests
// up to shutdownTimeout to finish.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var listenErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case listenErr = <-serverErr:
		app.logger.Error("server failed", "error", listenErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		app.logger.Error("server shutdown failed", "error", shutdownErr)
	}

	app.cleanup()

	if listenErr != nil {
		return fmt.Errorf("server failed: %w", listenErr)
	}
	if shutdownErr != nil {
		return fmt.Errorf("server shutdown failed: %w", shutdownErr)
	}

	app.logger.Info("server shutdown completed")
	return nil
}
