/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the approval view server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load configuration
  2. Build the structured logger
  3. Choose the snapshot source (REST backend or SQLite replica)
  4. Load the label bundle
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Optional config file (yaml, json or toml)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close replica connection
  4. Exit

EXAMPLES:
  # Serve from the HR backend
  APPROVALS_BACKEND_BASE_URL=https://hr.internal/api ./server

  # Serve demo scenarios from an in-memory replica
  APPROVALS_SOURCE_MODE=replica APPROVALS_REPLICA_PATH=":memory:" ./server

ENVIRONMENT:
  Every config key can be set as APPROVALS_<SECTION>_<KEY>. A .env file in
  the working directory is loaded first.

SEE ALSO:
  - config/config.go: Keys and defaults
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/approval-engine/api"
	"github.com/warp/approval-engine/backend"
	"github.com/warp/approval-engine/config"
	"github.com/warp/approval-engine/i18n"
	"github.com/warp/approval-engine/logging"
	"github.com/warp/approval-engine/store/sqlite"
	"github.com/warp/approval-engine/workflow"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	var (
		source  workflow.Source
		replica *sqlite.Store
	)

	switch cfg.Source.Mode {
	case config.SourceReplica:
		store, err := sqlite.New(cfg.Replica.Path)
		if err != nil {
			return fmt.Errorf("initialize replica: %w", err)
		}
		defer store.Close()
		source = store
		if cfg.Server.EnableDemo {
			replica = store
		}
		logger.Info("serving from replica", zap.String("path", cfg.Replica.Path))
	default:
		source = backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout,
			backend.WithToken(cfg.Backend.Token),
			backend.WithLogger(logger.Named("backend")))
		logger.Info("serving from backend", zap.String("base_url", cfg.Backend.BaseURL))
	}

	bundle, err := i18n.NewBundle(cfg.I18n.DefaultLocale)
	if err != nil {
		return err
	}

	handler := api.NewHandler(source, bundle, replica, logger)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("api", fmt.Sprintf("http://localhost:%d/api", cfg.Server.Port)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
