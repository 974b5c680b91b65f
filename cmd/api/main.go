package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/angelmondragon/shopeasy-backend/api/routes"
	"github.com/angelmondragon/shopeasy-backend/internal/auth"
	"github.com/angelmondragon/shopeasy-backend/internal/cart"
	"github.com/angelmondragon/shopeasy-backend/internal/categories"
	"github.com/angelmondragon/shopeasy-backend/internal/checkout"
	"github.com/angelmondragon/shopeasy-backend/internal/orders"
	"github.com/angelmondragon/shopeasy-backend/internal/products"
	"github.com/angelmondragon/shopeasy-backend/internal/users"
	"github.com/angelmondragon/shopeasy-backend/pkg/auth/session"
	"github.com/angelmondragon/shopeasy-backend/pkg/config"
	"github.com/angelmondragon/shopeasy-backend/pkg/db"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
	"github.com/angelmondragon/shopeasy-backend/pkg/metrics"
	"github.com/angelmondragon/shopeasy-backend/pkg/migrate"
	"github.com/angelmondragon/shopeasy-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
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
		Format:      logger.ParseFormat(cfg.App.LogFormat),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	userRepo := users.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg.Named("auth"),
	})
	requireResource(ctx, logg, "auth service", err)

	profileService, err := users.NewProfileService(userRepo)
	requireResource(ctx, logg, "profile service", err)

	categoryService, err := categories.NewService(categories.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "category service", err)

	productService, err := products.NewService(productRepo)
	requireResource(ctx, logg, "product service", err)

	cartService, err := cart.NewService(cartRepo, dbClient, logg.Named("cart"))
	requireResource(ctx, logg, "cart service", err)

	checkoutService, err := checkout.NewService(dbClient, cartRepo, productRepo, ordersRepo, metrics.NewCheckoutMetrics(registry), logg.Named("checkout"))
	requireResource(ctx, logg, "checkout service", err)

	ordersService, err := orders.NewService(ordersRepo)
	requireResource(ctx, logg, "orders service", err)

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, registry, routes.Services{
			Auth:       authService,
			Profile:    profileService,
			Categories: categoryService,
			Products:   productService,
			Cart:       cartService,
			Checkout:   checkoutService,
			Orders:     ordersService,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)

	var errs error
	errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
	errs = multierr.Append(errs, redisClient.Close())
	errs = multierr.Append(errs, dbClient.Close())
	if errs != nil {
		logg.Error(shutdownCtx, "shutdown finished with errors", errs)
		exitCode = 1
	} else {
		logg.Info(shutdownCtx, "shutdown complete")
	}
	cancel()
	os.Exit(exitCode)
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to initialize "+name, err)
	os.Exit(1)
}
