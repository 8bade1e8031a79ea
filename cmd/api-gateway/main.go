package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edt-api/api/swagger"
	"github.com/noah-isme/edt-api/internal/handler"
	"github.com/noah-isme/edt-api/internal/middleware"
	"github.com/noah-isme/edt-api/internal/models"
	"github.com/noah-isme/edt-api/internal/repository"
	"github.com/noah-isme/edt-api/internal/service"
	"github.com/noah-isme/edt-api/pkg/cache"
	"github.com/noah-isme/edt-api/pkg/config"
	"github.com/noah-isme/edt-api/pkg/jobs"
	"github.com/noah-isme/edt-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edt-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edt-api/pkg/middleware/requestid"
	"github.com/noah-isme/edt-api/pkg/storage"
)

// @title EDT API
// @version 1.0.0
// @description Weekly timetable negotiation service
// @BasePath /api
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Stores.
	official := repository.NewTimetableRepository(cfg.Data.Dir, repository.OfficialTimetableFile, false)
	draft := repository.NewTimetableRepository(cfg.Data.Dir, repository.DraftTimetableFile, true)
	if err := official.EnsureExists(nil); err != nil {
		logr.Sugar().Fatalw("seed official timetable", "error", err)
	}
	if err := draft.EnsureExists(nil); err != nil {
		logr.Sugar().Fatalw("seed draft timetable", "error", err)
	}
	requests := repository.NewChangeRequestRepository(cfg.Data.Dir)
	catalogs := repository.NewCatalogRepository(cfg.Data.Dir)
	users := repository.NewUserRepository(cfg.Data.Dir)

	history, err := storage.NewHistoryStore(filepath.Join(cfg.Data.Dir, "history"))
	if err != nil {
		logr.Sugar().Fatalw("init history store", "error", err)
	}

	metrics := service.NewMetricsService()

	// Optional redis read-through cache; the service degrades to direct
	// reads when redis is unreachable.
	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, view cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	// Services.
	authSvc := service.NewAuthService(users, cfg.JWT.Secret, cfg.JWT.Expiration, logr)
	commands := service.NewCommandCache(cfg.Commands.IdempotencyTTL, cfg.Commands.IdempotencyCapacity)
	timetableOpts := []service.TimetableServiceOption{service.WithTimetableMetrics(metrics)}
	if cacheRepo != nil {
		timetableOpts = append(timetableOpts, service.WithViewCache(cacheRepo, cfg.Cache.TTL))
	}
	timetableSvc := service.NewTimetableService(official, draft, catalogs, commands, logr, timetableOpts...)
	changeSvc := service.NewChangeRequestService(draft, requests, catalogs, metrics, logr)
	publishSvc := service.NewPublishService(official, draft, requests, history, metrics, logr)

	var generatorSvc *service.GeneratorService
	if cfg.Generator.Enabled {
		generatorSvc = service.NewGeneratorService(official, draft, catalogs, validator.New(), logr)
	}

	// History retention runs on the shared jobs queue.
	cleanupQueue := jobs.NewQueue("history-cleanup", func(ctx context.Context, job jobs.Job) error {
		deleted, err := history.CleanupOlderThan(cfg.History.RetentionTTL)
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			logr.Info("history snapshots pruned", zap.Int("count", len(deleted)))
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleanupQueue.Start(rootCtx)
	defer cleanupQueue.Stop()
	go func() {
		ticker := time.NewTicker(cfg.History.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				_ = cleanupQueue.Enqueue(jobs.Job{ID: fmt.Sprintf("cleanup-%d", time.Now().Unix()), Type: "history-cleanup"})
			}
		}
	}()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	changeHandler := handler.NewChangeRequestHandler(changeSvc)
	publishHandler := handler.NewPublishHandler(publishSvc)
	adminHandler := handler.NewAdminHandler(catalogs)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/timetable", timetableHandler.Get)
		authed.GET("/next-timetable", timetableHandler.GetDraft)
		authed.GET("/rooms/available", timetableHandler.AvailableRooms)
		authed.GET("/config", adminHandler.GetConfig)
		authed.GET("/catalog", adminHandler.GetCatalog)
		authed.GET("/teachers", adminHandler.GetTeachers)

		teacher := authed.Group("/teacher")
		teacher.Use(middleware.RequireRoles(models.RoleFormateur, models.RoleAdmin))
		{
			teacher.GET("/timetable", changeHandler.TeacherTimetable)
			teacher.GET("/changes", changeHandler.TeacherList)
			teacher.POST("/changes", changeHandler.Submit)
			teacher.DELETE("/changes/:id", changeHandler.Cancel)
		}

		admin := authed.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/timetable/commands", timetableHandler.ExecuteCommand)
			admin.POST("/timetable/sessions", timetableHandler.AddSession)

			admin.GET("/admin/changes", changeHandler.AdminList)
			admin.GET("/admin/timetable/virtual", changeHandler.AdminVirtualTimetable)
			admin.POST("/admin/changes/:id/simulate", changeHandler.Simulate)
			admin.POST("/admin/changes/:id/approve", changeHandler.Approve)
			admin.POST("/admin/changes/:id/reject", changeHandler.Reject)
			admin.POST("/admin/publish", publishHandler.Publish)

			admin.PUT("/admin/config", adminHandler.PutConfig)
			admin.PUT("/admin/catalog", adminHandler.PutCatalog)
			admin.GET("/admin/seances", adminHandler.GetSeances)

			if generatorSvc != nil {
				admin.POST("/generate/run", handler.NewGeneratorHandler(generatorSvc).Run)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "data_dir", cfg.Data.Dir)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
