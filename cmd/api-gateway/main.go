package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/hms-core-api/api/swagger"
	"github.com/noah-isme/hms-core-api/internal/handler"
	"github.com/noah-isme/hms-core-api/internal/middleware"
	"github.com/noah-isme/hms-core-api/internal/repository"
	"github.com/noah-isme/hms-core-api/internal/service"
	"github.com/noah-isme/hms-core-api/pkg/cache"
	"github.com/noah-isme/hms-core-api/pkg/config"
	"github.com/noah-isme/hms-core-api/pkg/database"
	"github.com/noah-isme/hms-core-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hms-core-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hms-core-api/pkg/middleware/requestid"
)

// @title HMS Core API
// @version 0.1.0
// @description Hostel management core: rooms, allocations, attendance
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	residentRepo := repository.NewResidentRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Search.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hms-core-api",
		SingleSession:      cfg.JWT.SingleSession,
	})
	residentSvc := service.NewResidentService(residentRepo, userRepo, allocationRepo, userRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, userRepo, validate, logr)
	allocationSvc := service.NewAllocationService(allocationRepo, userRepo, cacheRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, userRepo, cacheRepo, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, userRepo, validate, logr)
	searchSvc := service.NewSearchService(residentRepo, roomRepo, cacheSvc, cfg.Search.CacheTTL, logr)
	exportSvc := service.NewExportService(attendanceRepo, service.ExportConfig{
		Enabled: cfg.Exports.Enabled,
		MaxRows: cfg.Exports.MaxRows,
	}, logr, nil, nil)

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Residents:   handler.NewResidentHandler(residentSvc, attendanceSvc),
		Rooms:       handler.NewRoomHandler(roomSvc),
		Allocations: handler.NewAllocationHandler(allocationSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc, exportSvc),
		Leaves:      handler.NewLeaveHandler(leaveSvc),
		Search:      handler.NewSearchHandler(searchSvc),
		Metrics:     handler.NewMetricsHandler(metrics),
	}
	if cfg.Dashboard.Enabled {
		dashboardSvc := service.NewDashboardService(roomRepo, residentRepo, attendanceRepo, leaveRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
		handlers.Dashboard = handler.NewDashboardHandler(dashboardSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		start := time.Now()
		err := db.PingContext(c.Request.Context())
		metrics.ObserveDBQuery("ping", time.Since(start))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, handlers, authSvc, userRepo)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
