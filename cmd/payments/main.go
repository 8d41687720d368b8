// The payments binary serves the internal charge API, simulates payment
// outcomes, and delivers signed webhooks to the subscription service.
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
	httpHandler "subpay/internal/adapter/http/handler"
	pgStorage "subpay/internal/adapter/storage/postgres"
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
	log := logger.New("payments", cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.PaymentServer.Mode).
		Int("port", cfg.PaymentServer.Port).
		Msg("Starting payment service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize repositories
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	idempotencyStore := pgStorage.NewIdempotencyRepo(pool)
	webhookLogRepo := pgStorage.NewWebhookLogRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize core services
	sigSvc := service.NewHMACSignatureService(cfg.Webhook.Secret)
	sender := service.NewWebhookSender(cfg.Webhook, sigSvc, nil, webhookLogRepo, log)
	paymentSvc := service.NewPaymentService(paymentRepo, transactor, sender, cfg.Billing, log)

	// Expired idempotency records are reclaimed in the background.
	sweeper := service.NewIdempotencySweeper(idempotencyStore, cfg.Idempotency.SweepInterval, log)
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)

	// Setup Gin router with all routes
	router := httpHandler.SetupPaymentRouter(httpHandler.PaymentRouterDeps{
		PaymentSvc:       paymentSvc,
		APIKey:           cfg.Billing.APIKey,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.Idempotency.TTL,
		HealthCheckers:   []ports.HealthChecker{pgHealth},
		Logger:           log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.PaymentServer.Host, cfg.PaymentServer.Port)
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
