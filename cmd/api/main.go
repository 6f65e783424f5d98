package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dioinnovo/voicelead/cmd/mainconfig"
	"github.com/dioinnovo/voicelead/internal/api/router"
	appconfig "github.com/dioinnovo/voicelead/internal/config"
	"github.com/dioinnovo/voicelead/internal/dialogue"
	"github.com/dioinnovo/voicelead/internal/lead"
	"github.com/dioinnovo/voicelead/internal/observability/metrics"
	"github.com/dioinnovo/voicelead/internal/session"
	"github.com/dioinnovo/voicelead/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting voicelead API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"session_store", cfg.SessionStore,
	)

	store, err := newSessionStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	conversationMetrics := metrics.NewConversationMetrics(registry)

	leadRepo := lead.NewInMemoryRepository()
	machine := dialogue.New(dialogue.WithRetryLimit(cfg.RetryLimit))
	orch := session.NewOrchestrator(machine, store,
		session.WithLeadRepository(leadRepo),
		session.WithLogger(logger),
		session.WithMetrics(conversationMetrics),
	)

	routerCfg := &router.Config{
		Logger:              logger,
		ConversationHandler: session.NewHandler(orch, leadRepo, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newSessionStore selects the checkpoint backend from configuration.
func newSessionStore(cfg *appconfig.Config, logger *logging.Logger) (session.Store, error) {
	switch cfg.SessionStore {
	case "", "memory":
		return session.NewMemoryStore(cfg.SessionTTL), nil

	case "redis":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("session store ready", "backend", "redis", "addr", cfg.RedisAddr)
		return session.NewRedisStore(client, cfg.SessionTTL), nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres session store")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("session store ready", "backend", "postgres")
		return session.NewPostgresStore(db, cfg.SessionTTL), nil

	case "dynamo":
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		logger.Info("session store ready", "backend", "dynamo", "table", cfg.SessionTableName)
		return session.NewDynamoStore(client, cfg.SessionTableName, cfg.SessionTTL), nil

	default:
		return nil, fmt.Errorf("unknown session store backend %q", cfg.SessionStore)
	}
}
