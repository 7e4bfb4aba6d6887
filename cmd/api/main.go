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
	"go.uber.org/multierr"

	"github.com/neumaticos/tirestore/api/controllers"
	"github.com/neumaticos/tirestore/api/routes"
	"github.com/neumaticos/tirestore/internal/adminstats"
	"github.com/neumaticos/tirestore/internal/auth"
	"github.com/neumaticos/tirestore/internal/cart"
	"github.com/neumaticos/tirestore/internal/catalog"
	"github.com/neumaticos/tirestore/internal/checkout"
	"github.com/neumaticos/tirestore/internal/orders"
	"github.com/neumaticos/tirestore/internal/users"
	"github.com/neumaticos/tirestore/pkg/auth/session"
	"github.com/neumaticos/tirestore/pkg/config"
	"github.com/neumaticos/tirestore/pkg/db"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/metrics"
	"github.com/neumaticos/tirestore/pkg/migrate"
	"github.com/neumaticos/tirestore/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(runCtx, cfg.DB, logg)
	requireResource(runCtx, logg, "database", err)

	if err := migrate.MaybeRunDev(runCtx, cfg, logg, dbClient); err != nil {
		requireResource(runCtx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(runCtx, cfg.Redis, logg)
	requireResource(runCtx, logg, "redis", err)

	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(runCtx, logg, "session manager", err)

	userRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireResource(runCtx, logg, "auth service", err)

	userService, err := users.NewService(userRepo)
	requireResource(runCtx, logg, "users service", err)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	requireResource(runCtx, logg, "catalog service", err)

	snapshots, err := cart.NewRedisSnapshots(redisClient, cfg.Cart.SnapshotTTL)
	requireResource(runCtx, logg, "cart snapshots", err)
	cartRegistry, err := cart.NewRegistry(snapshots, cfg.Cart.IdleTTL, logg, cartMetrics)
	requireResource(runCtx, logg, "cart registry", err)
	cartService, err := cart.NewService(cartRegistry, catalogService)
	requireResource(runCtx, logg, "cart service", err)

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, logg)
	requireResource(runCtx, logg, "orders service", err)

	checkoutService, err := checkout.NewService(cartService, orderService, logg, cartMetrics)
	requireResource(runCtx, logg, "checkout service", err)

	statsService, err := adminstats.NewService(adminstats.NewRepository(dbClient.DB()), catalogRepo)
	requireResource(runCtx, logg, "admin stats service", err)

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		Sessions:    sessionManager,
		Idempotency: redisClient,
		RateLimits:  redisClient,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Gatherer:    reg,
		HTTPMetrics: httpMetrics,
	}, routes.Services{
		Auth:       authService,
		Users:      userService,
		Catalog:    catalogService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Orders:     orderService,
		AdminStats: statsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
		return
	case <-runCtx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
