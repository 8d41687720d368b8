// The subscriptions binary serves the user-facing subscription API and the
// webhook receiver for payment outcomes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subpay/config"
	"subpay/internal/adapter/gateway"
	httpHandler "subpay/internal/adapter/http/handler"
	pgStorage "subpay/internal/adapter/storage/postgres"
	redisStorage "subpay/internal/adapter/storage/redis"
	"subpay/internal/core/ports"
	"subpay/internal/service"
	"subpay/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("subscriptions", cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.SubscriptionServer.Mode).
		Int("port", cfg.SubscriptionServer.Port).
		Msg("Starting subscription service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	planRepo := pgStorage.NewPlanRepo(pool)
	subRepo := pgStorage.NewSubscriptionRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	idempotencyStore := pgStorage.NewIdempotencyRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	webhookDedup := redisStorage.NewWebhookDedupStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	sigSvc := service.NewHMACSignatureService(cfg.Webhook.Secret)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT)

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc, log)
	planSvc := service.NewPlanService(planRepo, log)
	paymentGateway := gateway.NewPaymentClient(cfg.Billing, log)
	subSvc := service.NewSubscriptionService(subRepo, planRepo, transactor, paymentGateway, log)
	processor := service.NewWebhookProcessor(subRepo, planRepo, paymentRepo, transactor, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Expired idempotency records are reclaimed in the background.
	sweeper := service.NewIdempotencySweeper(idempotencyStore, cfg.Idempotency.SweepInterval, log)
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupSubscriptionRouter(httpHandler.SubscriptionRouterDeps{
		AuthSvc:          authSvc,
		PlanSvc:          planSvc,
		SubscriptionSvc:  subSvc,
		WebhookProcessor: processor,
		TokenSvc:         tokenSvc,
		SigSvc:           sigSvc,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.Idempotency.TTL,
		WebhookDedup:     webhookDedup,
		WebhookDedupTTL:  cfg.Webhook.DedupTTL,
		RateLimitStore:   rateLimitStore,
		HealthCheckers:   []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:         auditSvc,
		Logger:           log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.SubscriptionServer.Host, cfg.SubscriptionServer.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
