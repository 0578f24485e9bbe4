package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/di"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/database"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/redis"
	"github.com/imobsites/imobsites-panel/pkg/server"
	"github.com/imobsites/imobsites-panel/pkg/telemetry"
)

const serviceName = "backend-master"

func main() {
	if err := run(); err != nil {
		logger.Error("backend-master stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := "info"
	if cfg.App.Debug {
		level = "debug"
	}
	if err := logger.Init(&logger.Config{
		Level:       level,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	if _, err := telemetry.Init(ctx, telemetry.FromConfig(cfg, serviceName)); err != nil {
		logger.Warn("telemetry disabled", zap.Error(err))
	}
	defer func() { _ = telemetry.Shutdown(context.Background()) }()

	db, err := database.NewPostgres(ctx, database.FromConfig(cfg.Database))
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redis.NewClient(ctx, redis.FromConfig(cfg.Redis))
	if err != nil {
		logger.Warn("redis unavailable, running without shared cache and locks", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	publisher, err := kafka.New(cfg.Kafka)
	if err != nil {
		logger.Warn("kafka unavailable, events are not published", zap.Error(err))
		publisher = kafka.NoOpPublisher{}
	}
	defer publisher.Close()

	container := di.NewContainer(&di.ContainerConfig{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Publisher: publisher,
	})

	audit := middleware.NewAuditLogger(middleware.DefaultAuditConfig(middleware.NewPostgresAuditStore(db.Pool())))
	defer audit.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Reminder.WorkerEnabled {
		container.ReminderWorker.Start(ctx)
		defer container.ReminderWorker.Stop()
	}

	srv := server.New(cfg.Server, cfg.Server.Port, container.Router(audit, reg))
	return server.Run(ctx, srv)
}
