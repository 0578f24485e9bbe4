// Command send-pending-order-reminders sends one batch of payment
// reminders for pending orders. It is meant to be run from cron.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/di"
	"github.com/imobsites/imobsites-panel/backend-master/internal/worker"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/database"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/redis"
	"github.com/imobsites/imobsites-panel/pkg/telemetry"
)

const defaultLimit = 100

func main() {
	os.Exit(run(context.Background(), os.Stdout))
}

func run(ctx context.Context, out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	// stdout carries only the summary line
	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: "send-pending-order-reminders",
		Development: cfg.IsDevelopment(),
		OutputPath:  "stderr",
	}); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if _, err := telemetry.Init(ctx, telemetry.FromConfig(cfg, "send-pending-order-reminders")); err != nil {
		logger.Warn("telemetry disabled", zap.Error(err))
	}
	defer func() { _ = telemetry.Shutdown(context.Background()) }()

	db, err := database.NewPostgres(ctx, database.FromConfig(cfg.Database))
	if err != nil {
		logger.Error("database unavailable", zap.Error(err))
		return 1
	}
	defer db.Close()

	rdb, err := redis.NewClient(ctx, redis.FromConfig(cfg.Redis))
	if err != nil {
		logger.Warn("redis unavailable, reminders are not locked", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	container := di.NewContainer(&di.ContainerConfig{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Publisher: kafka.NoOpPublisher{},
	})

	limit := cfg.Reminder.CLIBatchLimit
	if limit <= 0 {
		limit = defaultLimit
	}
	return sendBatch(ctx, container.ReminderService, limit, out)
}

// sendBatch runs one batch and prints the summary. Returns the exit code.
func sendBatch(ctx context.Context, runner worker.ReminderRunner, limit int, out io.Writer) int {
	res, err := runner.Run(ctx, limit)
	if err != nil {
		logger.Error("reminder batch failed", zap.Error(err))
		return 1
	}

	logger.Info("reminder batch finished",
		zap.Int("selected", res.Selected),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
	)
	fmt.Fprintf(out, "reminders sent: %d\n", res.Sent)
	return 0
}
