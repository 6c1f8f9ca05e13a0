package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mercato-dev/mercato-backend/internal/cron"
	"github.com/mercato-dev/mercato-backend/internal/orders"
	"github.com/mercato-dev/mercato-backend/internal/sellers"
	"github.com/mercato-dev/mercato-backend/pkg/config"
	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/instance"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/metrics"
	"github.com/mercato-dev/mercato-backend/pkg/migrate"
	"github.com/mercato-dev/mercato-backend/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	jobName := flag.String("job", "", "run a single job once and exit (e.g. "+cron.OrderStatusJobName+")")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

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

	registry, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"interval":  cfg.Cron.Interval.String(),
		"worker_id": instance.ID(),
	})

	if *jobName != "" {
		ctx = logg.WithField(ctx, "job", *jobName)
		if err := service.RunJob(ctx, *jobName); err != nil {
			logg.Error(ctx, "cron job run failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:         orders.NewRepository(dbClient.DB()),
		Tx:           dbClient,
		Logger:       logg,
		RefreshBatch: cfg.Cron.OrderRefreshBatch,
	})
	if err != nil {
		return nil, err
	}

	statusJob, err := cron.NewOrderStatusJob(cron.OrderStatusJobParams{
		Logger: logg,
		Orders: orderSvc,
	})
	if err != nil {
		return nil, err
	}

	ratingJob, err := cron.NewSellerRatingJob(cron.SellerRatingJobParams{
		Logger:  logg,
		DB:      dbClient,
		Sellers: sellers.NewRepository(dbClient.DB()),
		Ratings: sellers.NewRatingAggregator(),
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(statusJob, ratingJob), nil
}
