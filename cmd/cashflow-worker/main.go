package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"cashflow/internal/amqp"
	"cashflow/internal/config"
	applog "cashflow/internal/log"
	"cashflow/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to AMQP broker", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	notifyWorker := worker.NewNotifyWorker(cfg.WebhookURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("consuming ledger events", applog.FieldQueue, cfg.AMQPQueue)
		return amqpClient.Consume(gctx, notifyWorker.HandleMessage)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
