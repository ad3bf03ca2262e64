package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashflow/internal/amqp"
	"cashflow/internal/config"
	"cashflow/internal/forecast"
	apphttp "cashflow/internal/http"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
	"cashflow/internal/schedule"
	"cashflow/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	// NewSQLiteRepository brings the schema up to date before returning.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open database", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sched := schedule.Default()
	matcher := schedule.NewMatcher(sched)
	builder := forecast.NewBuilder(repo, sched, matcher, cfg.LookbackDays)

	if err := builder.SeedIfEmpty(context.Background()); err != nil {
		logger.Warn("forecast seed failed", applog.FieldError, err)
	}

	// AMQP is optional: without a broker the service still ingests and
	// forecasts, it just skips notifications.
	var notifier ledger.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to connect to AMQP broker", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = amqpClient
		logger.Info("AMQP notifications enabled", applog.FieldQueue, cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, no AMQP_URL provided")
	}

	svc := ledger.NewService(repo, builder, matcher, notifier, cfg.ForecastDays, cfg.LookbackDays)

	srv := apphttp.NewServer(":"+cfg.Port, cfg.AccessCode, svc, builder, sched, logger)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting cashflow server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
