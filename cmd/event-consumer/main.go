package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/solsticehq/beacon-messaging/internal/engine"
	"github.com/solsticehq/beacon-messaging/pkg/config"
	"github.com/solsticehq/beacon-messaging/pkg/db"
	"github.com/solsticehq/beacon-messaging/pkg/idempotency"
	"github.com/solsticehq/beacon-messaging/pkg/instance"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
	"github.com/solsticehq/beacon-messaging/pkg/metrics"
	"github.com/solsticehq/beacon-messaging/pkg/migrate"
	"github.com/solsticehq/beacon-messaging/pkg/pubsub"
	"github.com/solsticehq/beacon-messaging/pkg/redis"
)

const processedEventTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "event-consumer"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "event-consumer"

	logg = logger.New(logger.Options{
		ServiceName: "event-consumer",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	engineService, err := engine.NewService(engine.Params{
		Repo:    engine.NewRepository(dbClient.DB()),
		Logger:  logg,
		Metrics: metrics.NewEngineMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create engine service", err)
		os.Exit(1)
	}

	manager, err := idempotency.NewManager(redisClient, processedEventTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := engine.NewConsumer(engineService, pubsubClient.EventsSubscription(), manager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting event consumer")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "event consumer stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "event consumer shutting down gracefully")
}
