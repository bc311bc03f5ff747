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

	"github.com/sitestock/sitestock-backend/api/controllers"
	"github.com/sitestock/sitestock-backend/api/routes"
	"github.com/sitestock/sitestock-backend/internal/areas"
	"github.com/sitestock/sitestock-backend/internal/inventory"
	"github.com/sitestock/sitestock-backend/internal/media"
	"github.com/sitestock/sitestock-backend/internal/movements"
	"github.com/sitestock/sitestock-backend/pkg/config"
	"github.com/sitestock/sitestock-backend/pkg/db"
	"github.com/sitestock/sitestock-backend/pkg/logger"
	"github.com/sitestock/sitestock-backend/pkg/metrics"
	"github.com/sitestock/sitestock-backend/pkg/migrate"
	"github.com/sitestock/sitestock-backend/pkg/redis"
	"github.com/sitestock/sitestock-backend/pkg/storage/gcs"
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	areaRepo := areas.NewRepository(dbClient.DB())
	movementRepo := movements.NewRepository(dbClient.DB())

	// Seeding is tolerant of missing tables: a fresh database answers
	// SETUP_REQUIRED from the readiness probe until migrations run.
	if err := inventoryRepo.EnsureDefaults(context.Background()); err != nil {
		logg.Warn(context.Background(), "could not seed inventory defaults")
	}
	if err := areaRepo.EnsureDefaults(context.Background()); err != nil {
		logg.Warn(context.Background(), "could not seed default areas")
	}

	registry := prometheus.NewRegistry()
	movementMetrics := metrics.NewMovementMetrics(registry)

	guard, err := movements.NewPasscodeGuard(cfg.Passcode, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create passcode guard", err)
		os.Exit(1)
	}

	movementService, err := movements.NewService(movementRepo, inventoryRepo, areaRepo, guard, movementMetrics, logg, cfg.Movements)
	if err != nil {
		logg.Error(context.Background(), "failed to create movement service", err)
		os.Exit(1)
	}

	areaService, err := areas.NewService(areaRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create area service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(gcsClient, logg, cfg.Media)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			Registry:        registry,
			MovementService: movementService,
			AreaService:     areaService,
			MediaService:    mediaService,
			RateLimiter:     redisClient,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
				"gcs":      gcsClient,
			},
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
