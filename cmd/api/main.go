package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JohnnyHuang0515/ecommerce-backend/api/routes"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/auth"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/cart"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/identity"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/orders"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/products"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/stock"
	"github.com/JohnnyHuang0515/ecommerce-backend/internal/users"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/config"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/db"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/logger"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/metrics"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/migrate"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/outbox"
	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/redis"
)

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	resolver := identity.NewResolver(gormDB)
	ledger := stock.NewLedger(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)

	pricing, err := orders.NewFlatRatePolicy(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to build pricing policy", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		orders.NewRepository(gormDB),
		resolver,
		ledger,
		pricing,
		dbClient,
		outboxService,
		orderMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(
		products.NewRepository(gormDB),
		resolver,
		ledger,
		dbClient,
		outboxService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(gormDB), resolver, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:    users.NewRepository(gormDB),
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, authService, ordersService, productsService, cartService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
