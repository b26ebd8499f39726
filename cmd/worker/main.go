// Package main runs the notification worker that drains the redis queue.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/erp-desk/internal/config"
	"github.com/spec-kit/erp-desk/internal/notify"
	"github.com/spec-kit/erp-desk/internal/observability"
	"github.com/spec-kit/erp-desk/internal/persistence"
	"github.com/spec-kit/erp-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	redis := persistence.NewRedis(cfg.Redis, logger)
	if !redis.Enabled() {
		logger.Fatal("REDIS_ADDR is required by the notification worker")
	}
	defer redis.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	queue := notify.NewQueue(redis.Client, cfg.Notification, logger)
	sender := notify.Senders(cfg.Notification.EmailFrom, cfg.Notification.WebhookURL, logger)
	w := worker.NewNotificationWorker(queue, sender, cfg.Notification.PollTimeout(), logger)

	logger.Info("notification worker started", zap.String("queue", cfg.Notification.QueueKey))
	w.Run(ctx)
	logger.Info("notification worker stopped")
}
