package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	reservationsapp "github.com/pickarooms/reservations-server/internal/app"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/telemetry"
	"github.com/pickarooms/reservations-server/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reservations API server",
	Long: `Start the reservations API server.

The server requires a configuration file (--config) that specifies:
- Resources and the calendar feeds publishing their reservations
- The lock, archive and messaging integrations
- Storage, retention and telemetry settings`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	address := viper.GetString("address")
	configPath := viper.GetString("config")

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"resources", len(cfg.Resources),
		"feeds", len(cfg.Feeds()),
		"storage", cfg.GetStorageType(),
	)

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.Version
	}
	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	app, err := reservationsapp.NewReservationsApp(ctx,
		reservationsapp.WithConfig(cfg),
		reservationsapp.WithAddress(address),
		reservationsapp.WithMeterProvider(tel.MeterProvider()),
		reservationsapp.WithTracerProvider(tel.TracerProvider()),
		reservationsapp.WithMetricsHandler(tel.MetricsHandler()),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			_ = app.Stop(defaultGracefulTimeout)
			return err
		}
	}

	return app.Stop(defaultGracefulTimeout)
}
