package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/petcal-api/api/swagger"
	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/internal/handler"
	"github.com/noah-isme/petcal-api/internal/middleware"
	"github.com/noah-isme/petcal-api/internal/realtime"
	"github.com/noah-isme/petcal-api/internal/repository"
	"github.com/noah-isme/petcal-api/internal/service"
	"github.com/noah-isme/petcal-api/pkg/cache"
	"github.com/noah-isme/petcal-api/pkg/config"
	"github.com/noah-isme/petcal-api/pkg/database"
	"github.com/noah-isme/petcal-api/pkg/jobs"
	"github.com/noah-isme/petcal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/petcal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/petcal-api/pkg/middleware/requestid"
	"github.com/noah-isme/petcal-api/pkg/storage"
)

// @title Pet Calendar API
// @version 1.0.0
// @description Pet care calendar: recurring events, scoped edits and calendar grids.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, window cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Calendar.CacheTTL, logr, cfg.Calendar.CacheEnabled && redisClient != nil)

	hub := realtime.NewHub(cfg.CORS.AllowedOrigins, metricsSvc, logr)
	go hub.Run(ctx)

	validate := validator.New()
	eventRepo := repository.NewEventRepository(db)
	petRepo := repository.NewPetRepository(db)
	eventSvc := service.NewEventService(eventRepo, petRepo, cacheSvc, metricsSvc, hub, validate, logr, service.EventServiceConfig{
		Location:       cfg.Calendar.Location,
		MaxOccurrences: cfg.Calendar.MaxOccurrences,
		CacheTTL:       cfg.Calendar.CacheTTL,
	})
	petSvc := service.NewPetService(petRepo, validate, logr)
	calendarSvc := service.NewCalendarService(eventSvc, calendar.SystemClock, cfg.Calendar.Location, logr)

	var exportStore *storage.LocalStorage
	if cfg.Export.SigningSecret != "" {
		exportStore, err = storage.NewLocalStorage(cfg.Export.Dir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		calendarSvc.WithSharing(exportStore, storage.NewSigner(cfg.Export.SigningSecret, cfg.Export.LinkTTL))
	} else {
		logr.Info("export sharing disabled: EXPORT_SIGNING_SECRET not set")
	}

	queue := jobs.NewQueue("maintenance", jobs.QueueConfig{
		Workers:    cfg.Maintenance.Workers,
		MaxRetries: cfg.Maintenance.Retries,
		Logger:     logr,
	})
	maintenance := service.NewMaintenanceService(eventSvc, queue, calendar.ZonedClock(calendar.SystemClock, cfg.Calendar.Location), metricsSvc, logr, service.MaintenanceConfig{
		CacheWarmSpec:     cfg.Maintenance.CacheWarmCron,
		ExportCleanupSpec: cfg.Maintenance.ExportCleanupCron,
		ExportRetention:   cfg.Export.LinkTTL,
	})
	if exportStore != nil {
		maintenance.WithExportCleanup(exportStore)
	}
	if cfg.Maintenance.Enabled {
		queue.Start(ctx)
		defer queue.Stop()
		if err := maintenance.Start(); err != nil {
			logr.Fatal("failed to schedule maintenance", zap.Error(err))
		}
		defer maintenance.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins, MaxAge: cfg.CORS.MaxAge}))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Events:   handler.NewEventHandler(eventSvc, cfg.Calendar.Location),
		Calendar: handler.NewCalendarHandler(calendarSvc),
		Pets:     handler.NewPetHandler(petSvc),
		Metrics:  handler.NewMetricsHandler(metricsSvc, checks),
		Realtime: handler.NewRealtimeHandler(hub, logr),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", cfg.Calendar.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
