package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mercato-dev/mercato-backend/api/routes"
	"github.com/mercato-dev/mercato-backend/internal/address"
	"github.com/mercato-dev/mercato-backend/internal/auth"
	"github.com/mercato-dev/mercato-backend/internal/cart"
	"github.com/mercato-dev/mercato-backend/internal/catalog"
	"github.com/mercato-dev/mercato-backend/internal/checkout"
	"github.com/mercato-dev/mercato-backend/internal/orders"
	product "github.com/mercato-dev/mercato-backend/internal/products"
	"github.com/mercato-dev/mercato-backend/internal/reviews"
	"github.com/mercato-dev/mercato-backend/internal/sellers"
	"github.com/mercato-dev/mercato-backend/internal/users"
	"github.com/mercato-dev/mercato-backend/pkg/config"
	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/metrics"
	"github.com/mercato-dev/mercato-backend/pkg/migrate"
	"github.com/mercato-dev/mercato-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	deps := routes.Deps{
		Config: cfg,
		Logger: logg,
		DB:     dbClient,
	}

	if cfg.Redis.Enabled() {
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
		deps.Redis = redisClient
		deps.RateLimiter = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, auth rate limiting disabled")
	}

	if err := buildServices(cfg, logg, dbClient, &deps); err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.NewHTTPMetrics(reg)
	deps.Gatherer = reg

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": cfg.DB.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, deps *routes.Deps) error {
	conn := dbClient.DB()
	ratings := sellers.NewRatingAggregator()

	userRepo := users.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)

	var err error
	if deps.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	}); err != nil {
		return err
	}
	if deps.Register, err = auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	}); err != nil {
		return err
	}
	if deps.Users, err = users.NewService(userRepo); err != nil {
		return err
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return err
	}
	deps.Catalog = catalogSvc

	if deps.Sellers, err = sellers.NewService(sellers.NewRepository(conn)); err != nil {
		return err
	}
	if deps.Products, err = product.NewService(product.ServiceParams{
		Repo:    productRepo,
		Tx:      dbClient,
		Catalog: catalogSvc,
		Ratings: ratings,
		Logger:  logg,
	}); err != nil {
		return err
	}
	if deps.Reviews, err = reviews.NewService(reviews.NewRepository(conn), dbClient, ratings, logg); err != nil {
		return err
	}

	cartRepo := cart.NewRepository(conn)
	if deps.Cart, err = cart.NewService(cartRepo, dbClient, logg); err != nil {
		return err
	}
	if deps.Checkout, err = checkout.NewService(checkout.ServiceParams{
		Tx:        dbClient,
		Cart:      cartRepo,
		Products:  productRepo,
		Orders:    orderRepo,
		Addresses: address.NewRepository(conn),
		Logger:    logg,
	}); err != nil {
		return err
	}
	if deps.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:         orderRepo,
		Tx:           dbClient,
		Logger:       logg,
		RefreshBatch: cfg.Cron.OrderRefreshBatch,
	}); err != nil {
		return err
	}
	return nil
}
