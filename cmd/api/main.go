// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"trendscout/internal/adapter/ai"
	"trendscout/internal/adapter/cache"
	"trendscout/internal/adapter/ensemble"
	"trendscout/internal/adapter/events"
	"trendscout/internal/adapter/storage"
	"trendscout/internal/config"
	"trendscout/internal/server"
	"trendscout/internal/service/analysis"
)

func main() {
	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Environment)
	slog.SetDefault(logger)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Cache and lock backend. Both degrade gracefully when Redis is
	// not configured.
	cacheAdapter := cache.NewRedisCache(cfg.Redis, cfg.Cache, logger)
	defer cacheAdapter.Close()
	locker := cache.NewRedisLocker(cacheAdapter, logger)

	// Vendor and AI clients
	vendorClient := ensemble.NewClient(cfg.Vendor, logger)
	aiClient := ai.NewClient(cfg.AI, logger)

	// Optional analysis-run history store
	var history analysis.HistoryStore
	if cfg.Database.Host != "" {
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		historyStore := storage.NewHistoryStore(db)
		if err := historyStore.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure database schema", "error", err)
			os.Exit(1)
		}
		history = historyStore
	} else {
		logger.Info("analysis history disabled (DB_HOST not configured)")
	}

	// Optional completion-event publisher
	var publisher analysis.EventPublisher
	if cfg.NATS.URL != "" {
		natsConn, err := initNATS(cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsConn.Close()

		publisher = events.NewPublisher(natsConn, cfg.NATS.EventsSubject, logger)
	} else {
		logger.Info("event publishing disabled (NATS_URL not configured)")
	}

	// Initialize pipeline services
	extractor := analysis.NewHashtagExtractor(
		ai.NewHashtagClassifier(aiClient, cfg.Pipeline.MaxHashtags),
		cfg.Pipeline,
		logger,
	)
	finder := analysis.NewTrendFinder(vendorClient, cacheAdapter, cfg.Pipeline, cfg.Vendor.RequestDelay, logger)
	quality := analysis.NewQualityFilter(cfg.Pipeline, logger)
	relevance := analysis.NewRelevanceScorer(ai.NewRelevanceRater(aiClient), cacheAdapter, cfg.Pipeline, logger)

	analysisService := analysis.NewService(
		vendorClient,
		cacheAdapter,
		locker,
		ai.NewNicheClassifier(aiClient),
		extractor,
		finder,
		quality,
		relevance,
		history,
		publisher,
		cfg.Pipeline,
		cfg.Lock.TTL,
		logger,
	)

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, analysisService, cacheAdapter)

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// Initialize structured logging
func initLogger(environment string) *slog.Logger {
	level := slog.LevelInfo
	if environment == "development" {
		level = slog.LevelDebug
	}

	if environment == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger *slog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
