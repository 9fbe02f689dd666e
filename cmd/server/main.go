package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/user/flow-pricer/internal/adapter/api"
	"github.com/user/flow-pricer/internal/adapter/api/handler"
	"github.com/user/flow-pricer/internal/adapter/metrics"
	"github.com/user/flow-pricer/internal/adapter/repository/postgres"
	redisrepo "github.com/user/flow-pricer/internal/adapter/repository/redis"
	"github.com/user/flow-pricer/internal/adapter/shopify"
	"github.com/user/flow-pricer/internal/domain"
	"github.com/user/flow-pricer/internal/pkg/config"
	"github.com/user/flow-pricer/internal/pkg/logger"
	"github.com/user/flow-pricer/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	m := metrics.NewFlowMetrics()

	// --- Metrics Server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		log.Info("starting metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Shop Registry ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var shops domain.ShopRepository = postgres.NewShopRepository(db)

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("could not connect to redis, shop lookups will not be cached", "error", err)
		}
		shops = redisrepo.NewShopCache(redisClient, shops, cfg.ShopCacheTTL, log)
	}

	// --- Shopify Client ---
	limiter := rate.NewLimiter(rate.Limit(cfg.ShopifyRateRPS), cfg.ShopifyRateBurst)
	commerce := shopify.NewClient(
		cfg.ShopifyAPIVersion,
		cfg.ShopifyAPIKey,
		cfg.ShopifyAPISecret,
		cfg.ShopifyTimeout,
		limiter,
		log,
		m,
	)

	// --- Use Cases and Handlers ---
	checkUseCase := usecase.NewCheckInventoryUseCase(shops, commerce, log)
	flowHandler := handler.NewFlowHandler(checkUseCase, log, m)
	authHandler := handler.NewAuthHandler(shops, commerce, cfg.ShopifyAPIKey, cfg.AppURL, log)

	// --- HTTP Server ---
	router := api.NewRouter(log, flowHandler, authHandler)
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	log.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	log.Info("servers shut down gracefully")
}
