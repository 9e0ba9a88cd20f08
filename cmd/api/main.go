package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/negoride/platform/internal/app"
	"github.com/negoride/platform/internal/auth"
	"github.com/negoride/platform/internal/infra"
	"github.com/negoride/platform/internal/policy"
	"github.com/negoride/platform/internal/projection"
	"github.com/negoride/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	// Projection cache; falls back to in-process memory when Redis is down.
	var cache projection.Store
	redisStore, err := projection.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory projection store", "error", err)
		cache = projection.NewInMemoryStore()
	} else {
		defer redisStore.Close()
		cache = redisStore
		logger.Info("connected to redis")
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour, 8*time.Hour)

	pol := policy.DefaultPaymentPolicy()
	pol.Limits.SinglePaymentMax = cfg.SinglePaymentMax
	pol.Limits.DailySpendMax = cfg.DailySpendMax

	router := app.NewRouter(app.RouterDeps{
		Pool:                pool,
		JWTMgr:              jwtMgr,
		Logger:              logger,
		Cache:               cache,
		StripeSecretKey:     cfg.StripeSecretKey,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		ServiceFeePercent:   cfg.ServiceFeePercent,
		DefaultCurrency:     cfg.DefaultCurrency,
		Policy:              &pol,
	})

	// Outbox publication runs inside the API process; the consumer binary is
	// for downstream services.
	producer := infra.NewKafkaProducer(cfg, logger)
	defer producer.Close()
	infra.NewOutboxPoller(pool, repository.NewOutboxRepository(), producer, logger).Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
