package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/solsticehq/beacon-messaging/internal/cron"
	"github.com/solsticehq/beacon-messaging/internal/engine"
	"github.com/solsticehq/beacon-messaging/internal/steps"
	"github.com/solsticehq/beacon-messaging/pkg/config"
	"github.com/solsticehq/beacon-messaging/pkg/db"
	"github.com/solsticehq/beacon-messaging/pkg/instance"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
	"github.com/solsticehq/beacon-messaging/pkg/metrics"
	"github.com/solsticehq/beacon-messaging/pkg/migrate"
	"github.com/solsticehq/beacon-messaging/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stepsService, err := steps.NewService(steps.Params{
		Repo:   steps.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create steps service", err)
		os.Exit(1)
	}

	engineRepo := engine.NewRepository(dbClient.DB())

	stepJob, err := cron.NewSequenceStepJob(cron.SequenceStepJobParams{
		Logger:    logg,
		Service:   stepsService,
		BatchSize: cfg.Engine.StepBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create step job", err)
		os.Exit(1)
	}

	messageRetentionJob, err := cron.NewMessageRetentionJob(cron.MessageRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: engineRepo,
		Retention:  cfg.Engine.MessageRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create message retention job", err)
		os.Exit(1)
	}

	enrollmentRetentionJob, err := cron.NewEnrollmentRetentionJob(cron.EnrollmentRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: engineRepo,
		Retention:  cfg.Engine.EnrollmentRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create enrollment retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(stepJob, messageRetentionJob, enrollmentRetentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
