package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/zapkart/zapkart-backend/internal/notifications"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notification-worker"})
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "notification-worker",
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

	svc := notifications.NewService(notifications.NewRepo(dbClient), cfg.Delivery.NotificationCap, logg)
	consumer := notifications.NewConsumer(svc, dbClient, logg)

	sub, err := pubsub.NewSubscriber(ctx, cfg.PubSub)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub subscriber", err)
		os.Exit(1)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub subscriber", err)
		}
	}()

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg.Info(runCtx, "notification worker started")
	if err := sub.Receive(runCtx, consumer.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "notification worker shut down")
}
