// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quokka-directory/internal/config"
	pg "quokka-directory/internal/infra/db/postgres"
	"quokka-directory/internal/infra/logging"
	"quokka-directory/internal/infra/metrics"
	red "quokka-directory/internal/infra/redis"
	"quokka-directory/internal/infra/sched"
	"quokka-directory/internal/infra/web"
	"quokka-directory/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed auth)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pg.ReportPoolStats(pool)
			}
		}
	}()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	viewDeduper := red.NewViewDeduper(redisClient, cfg.Redis.ViewTTL)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	promoRepo := pg.NewPromoCodeRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	listingRepo := pg.NewListingRepo(pool)

	// ---- Use cases ----
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, subRepo, listingRepo, txManager, logger)
	promoUC := usecase.NewPromoUseCase(promoRepo, logger)
	giftUC := usecase.NewGiftUseCase(paymentRepo, subRepo, listingRepo, txManager, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, logger)
	directoryUC := usecase.NewDirectoryUseCase(listingRepo, viewDeduper, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Web.AdminSecret, !cfg.Runtime.Dev, "", cfg.Web.SessionTTL)
	srv := web.NewServer(directoryUC, paymentUC, promoUC, giftUC, subUC, auth, rateLimiter, cfg.Web.RatePerMinute, logger)

	router := srv.Router()
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Web.Port),
		Handler: router,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Promo sweep worker ----
	worker := sched.NewPromoSweepWorker(cfg.Worker.PromoSweepInterval, promoUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
