package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
	"github.com/zapkart/zapkart-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
		Level:       logger.ParseLevel(cfg.LogLevel),
		WarnStack:   cfg.LogWarnWithStack,
	})

	dbClient, err := db.New(cfg.Database)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	pub, err := pubsub.NewPublisher(ctx, cfg.PubSub)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub publisher", err)
		os.Exit(1)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub publisher", err)
		}
	}()

	svc := NewService(dbClient, pub, cfg.Outbox, metrics.New(), logg)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg.Info(runCtx, "outbox publisher started")
	if err := svc.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shut down")
}
