package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casetrace/smart-import/internal/analysis"
	"github.com/casetrace/smart-import/internal/batch"
	"github.com/casetrace/smart-import/internal/config"
	"github.com/casetrace/smart-import/internal/database"
	"github.com/casetrace/smart-import/internal/handlers"
	"github.com/casetrace/smart-import/internal/kafka"
	"github.com/casetrace/smart-import/internal/metrics"
	"github.com/casetrace/smart-import/internal/neo4j"
	"github.com/casetrace/smart-import/internal/resolver"
	"github.com/casetrace/smart-import/internal/risk"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))

	logger.Info("starting smart import service", "version", "1.0.0")

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector()

	// Initialize database connection
	db, err := database.NewConnection(cfg.Database, cfg.DatabaseDSN(), logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run database migrations
	if err := database.RunMigrations(cfg.Database.MigrationsPath, migrationURL(cfg)); err != nil {
		logger.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	repository := database.NewRepository(db, logger)

	// Initialize Neo4j client
	graphClient, err := neo4j.NewClient(cfg.Neo4j, logger)
	if err != nil {
		logger.Error("failed to connect to Neo4j", "error", err)
		os.Exit(1)
	}
	defer graphClient.Close(context.Background())

	// Initialize Kafka producer
	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	// Initialize the import pipeline
	batchManager := batch.NewManager(logger)
	entityResolver := resolver.NewResolver(logger)
	scorer := risk.NewScorer(logger)
	engine := analysis.NewEngine(entityResolver, scorer, cfg.Import, metricsCollector, logger)

	// Initialize HTTP handlers
	httpHandlers := handlers.NewHTTPHandlers(
		batchManager,
		engine,
		repository,
		graphClient,
		producer,
		metricsCollector,
		cfg,
		logger,
	)

	// Setup HTTP router
	router := mux.NewRouter()
	httpHandlers.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP server
	go func() {
		logger.Info("starting http server", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	logger.Info("starting graceful shutdown")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer httpCancel()
	if err := httpSrv.Shutdown(httpCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}

	logger.Info("smart import service shutdown completed")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// migrationURL builds a postgres:// URL for golang-migrate from the same
// settings the sql.DB connection uses.
func migrationURL(cfg *config.Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.Database.Username),
		url.QueryEscape(cfg.Database.Password),
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)
}
