package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/psychotest-app/psychotest-api/api/swagger"
	"github.com/psychotest-app/psychotest-api/internal/handler"
	"github.com/psychotest-app/psychotest-api/internal/middleware"
	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/internal/repository"
	"github.com/psychotest-app/psychotest-api/internal/service"
	"github.com/psychotest-app/psychotest-api/pkg/cache"
	"github.com/psychotest-app/psychotest-api/pkg/config"
	"github.com/psychotest-app/psychotest-api/pkg/database"
	"github.com/psychotest-app/psychotest-api/pkg/logger"
	"github.com/psychotest-app/psychotest-api/pkg/storage"
	corsmiddleware "github.com/psychotest-app/psychotest-api/pkg/middleware/cors"
	reqidmiddleware "github.com/psychotest-app/psychotest-api/pkg/middleware/requestid"
)

// @title Psychotest API
// @version 1.0.0
// @description Psychological testing backend for schools
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	// Redis is optional. The statistics endpoints fall back to direct
	// queries when the cache is unavailable.
	var cacheSvc *service.CacheService
	if cfg.Stats.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	userRepo := repository.NewUserRepository(db)
	resultRepo := repository.NewResultRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	policy := service.NewAccessPolicy()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	testSvc := service.NewTestService(resultRepo, policy, nil, logr)
	statsSvc := service.NewStatsService(resultRepo, cacheSvc, cfg.Stats.CacheTTL, logr)
	userSvc := service.NewUserService(userRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	testHandler := handler.NewTestHandler(testSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	tests := api.Group("/tests", middleware.JWT(authSvc))
	tests.POST("/submit", middleware.RequireRoles(models.RoleStudent), testHandler.Submit)
	tests.GET("/my", middleware.RequireRoles(models.RoleStudent), testHandler.My)
	tests.GET("/all", middleware.RequireRoles(models.RolePsychologist), middleware.Audit(auditRepo, "view_all_results", "test_results"), testHandler.All)
	tests.GET("/stats", middleware.RequireRoles(models.RolePsychologist), statsHandler.Categories)
	tests.GET("/summary", middleware.RequireRoles(models.RolePsychologist), statsHandler.Summary)
	tests.GET("/by-user/:userId", middleware.RequireRoles(models.RolePsychologist), middleware.Audit(auditRepo, "view_student_results", "test_results"), testHandler.ByUser)
	tests.GET("/:id", testHandler.ByID)

	if cfg.Exports.Enabled {
		var archiveSvc *service.ArchiveService
		store, err := storage.NewLocalStorage(cfg.Exports.ArchiveDir)
		if err != nil {
			logr.Sugar().Warnw("export archive disabled", "error", err)
		} else {
			archiveSvc = service.NewArchiveService(store, logr)
			archiveSvc.Start(context.Background())
			defer archiveSvc.Stop()
		}
		exportSvc := service.NewExportService(resultRepo, archiveSvc, logr)
		exportHandler := handler.NewExportHandler(exportSvc)
		tests.GET("/export", middleware.RequireRoles(models.RolePsychologist), exportHandler.Export)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	users.GET("/students", middleware.RequireRoles(models.RolePsychologist), userHandler.Students)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
