/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the asset vault server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, YAML file, environment, flags)
  2. Initialize SQLite store
  3. Register Prometheus collectors and vault metrics
  4. Create the vault, API handler and router
  5. Start the auto-release scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config      YAML configuration file (default: $VAULT_CONFIG)
  -port        HTTP server port (overrides config)
  -db          SQLite database path (overrides config)
               Use ":memory:" for in-memory database
  -log-level   debug, info, warn or error (overrides config)
  -log-format  text or json (overrides config)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the auto-release scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/vault.db"

  # Run with in-memory database and JSON logs
  ./server -db=":memory:" -log-format=json

  # Run from a config file
  ./server -config=./vault.yaml

SEE ALSO:
  - config/config.go: Configuration layering
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/asset-vault/api"
	"github.com/warp/asset-vault/auth"
	"github.com/warp/asset-vault/config"
	"github.com/warp/asset-vault/store/sqlite"
	"github.com/warp/asset-vault/vault"
)

func main() {
	// Flags
	configPath := flag.String("config", os.Getenv("VAULT_CONFIG"), "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	logLevel := flag.String("log-level", "", "Log level")
	logFormat := flag.String("log-format", "", "Log format (text or json)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	v := vault.New(store, auth.Context{},
		vault.WithLogger(logger),
		vault.WithMetrics(vault.NewMetrics(registry)),
	)

	// Create router
	handler := api.NewHandler(v, store, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimiter:    api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		MaxSkew:        cfg.SignatureSkew,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Auto-release scheduler
	scheduler := api.NewAutoReleaseScheduler(v, logger)
	scheduler.CheckInterval = cfg.AutoReleaseInterval
	scheduler.Enabled = cfg.AutoReleaseInterval > 0
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server stopped")
}

func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
