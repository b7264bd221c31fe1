package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpMetrics "stockAgent/app/echo-server/metrics"
	"stockAgent/app/echo-server/router"
	"stockAgent/internal/agent"
	"stockAgent/internal/middleware"
	"stockAgent/internal/rest"
	"stockAgent/internal/scheduler"
	"stockAgent/pkg/config"
	"stockAgent/pkg/database"
	redisClient "stockAgent/pkg/database/redis"
	"stockAgent/pkg/logger"
	"stockAgent/pkg/metrics"
	"stockAgent/pkg/observability"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Stock Agent", "version", cfg.App.Version)

	metrics.Init()
	httpMetrics.Init()

	otelShutdown := observability.InitOTel(context.Background(), observability.OtelConfig{
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
		Version:     cfg.App.Version,
	})

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	var rdb *redis.Client
	if cfg.Redis.RedisEnabled {
		rdb, err = redisClient.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, decision de-duplication disabled", "error", err)
		}
	}

	// Init service
	comps := agent.Build(context.Background(), cfg, db, rdb)
	engine := comps.Engine

	sched, err := scheduler.New(engine, cfg.Agent.CronSchedule, cfg.Agent.CycleTimeout)
	if err != nil {
		logger.Fatal("Failed to configure scheduler", "error", err)
	}

	// Init handler
	agentHandler := rest.NewAgentHandler(engine)
	decisionHandler := rest.NewDecisionHandler(comps.Decisions)
	healthHandler := rest.NewHealthHandler(comps.Decisions)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.AttachTraceContext())
	e.Use(httpMetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Auth middleware
	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)

	// Setup routes
	router.SetupHealthRoutes(e, healthHandler)
	api := e.Group("/api/v1")
	router.SetupAgentRoutes(api, agentHandler, authRequired)
	router.SetupDecisionRoutes(api, decisionHandler, authRequired)

	sched.Start()
	logger.Info("Scheduler started", "schedule", cfg.Agent.CronSchedule)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop taking new ticks and wait for a running one
	select {
	case <-sched.Stop().Done():
	case <-ctx.Done():
		logger.Warn("Scheduler did not stop in time")
	}

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := redisClient.CloseRedisClient(rdb); err != nil {
		logger.Error("Redis close error", "error", err)
	}

	if err := otelShutdown(ctx); err != nil {
		logger.Error("Tracer shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
