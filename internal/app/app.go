// Package app provides application lifecycle management for the reservations server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pickarooms/reservations-server/internal/config"
)

// ReservationsApp encapsulates all components needed to run the reservations API server
// It provides lifecycle management and graceful shutdown capabilities
type ReservationsApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the background components and the HTTP server.
// This method blocks until the HTTP server stops or encounters an error
func (app *ReservationsApp) Start() error {
	app.startBackground()

	// Start HTTP server (blocks until stopped)
	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (app *ReservationsApp) startBackground() {
	c := app.components

	if c.EnrichmentScheduler != nil {
		// recover pending attempts before the first sync can schedule new ones
		if err := c.EnrichmentScheduler.Start(app.ctx); err != nil {
			slog.Error("Enrichment scheduler failed to start", "error", err)
		}
	}

	go func() {
		if err := c.SyncCoordinator.Start(app.ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	}()

	if c.CommandChannel != nil {
		go func() {
			if err := c.CommandChannel.Run(app.ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Command channel failed", "error", err)
			}
		}()
	}

	if c.SpreadsheetWatcher != nil {
		go func() {
			if err := c.SpreadsheetWatcher.Run(app.ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Spreadsheet watcher failed", "error", err)
			}
		}()
	}
}

// Stop gracefully stops the application with the given timeout
// It stops the background components and then shuts down the HTTP server
func (app *ReservationsApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	// Stop sync coordinator first so no new rows are scheduled
	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}
	if app.components.EnrichmentScheduler != nil {
		app.components.EnrichmentScheduler.Stop()
	}

	// Graceful HTTP server shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := app.httpServer.Shutdown(shutdownCtx)

	// Cancel the application context and release storage
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *ReservationsApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *ReservationsApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the wired application components
func (app *ReservationsApp) GetComponents() *AppComponents {
	return app.components
}
