package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dialect-bridge/internal/app"
	"dialect-bridge/internal/config"
	"dialect-bridge/internal/controller"
	"dialect-bridge/internal/database/drivers/warehouses"
	"dialect-bridge/internal/logging"
	"dialect-bridge/internal/middleware"
	"dialect-bridge/internal/security"
	"dialect-bridge/internal/service"
)

const version = "1.0.0"

type Options struct {
	Config  string `short:"c" long:"config" description:"configuration file (default ./configs/config.yaml)"`
	Profile string `short:"p" long:"profile" description:"Databricks CLI profile"`
}

func main() {
	var opts Options
	if _, err := flags.ParseArgs(&opts, os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(config.Options{ConfigFile: opts.Config, Profile: opts.Profile})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logging:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	components, err := app.Build(ctx, cfg, app.Options{Registerer: prometheus.DefaultRegisterer}, logger)
	if err != nil {
		logger.Fatal("failed to initialize translation pipeline", zap.Error(err))
	}
	defer components.Close()

	// Warehouse probe for health checks
	probe, err := warehouses.NewDatabricksDriver(ctx, cfg.WarehouseConfig(), logger)
	if err != nil {
		logger.Fatal("invalid warehouse settings", zap.Error(err))
	}
	defer probe.Close()

	// Initialize services and controllers
	translationService := service.NewTranslationService(components.Pipeline, components.Rules, components.Guard, components.Metrics)
	translationController := controller.NewSQLTranslationController(translationService)
	healthController := controller.NewHealthController(probe, components.History, version)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.NewHTTPMetrics(prometheus.DefaultRegisterer).Middleware())

	// Health and metrics endpoints (always available)
	router.GET("/health", healthController.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1/sql")
	if cfg.Security.EnableRateLimit {
		rateLimiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
			RPM:             cfg.Security.RateLimitPerMinute,
			Burst:           cfg.Security.RateLimitBurst,
			CleanupInterval: 5 * time.Minute,
		})
		api.Use(rateLimiter.RateLimit())
	}

	var requireTranslate, requirePreview gin.HandlerFunc = noAuth, noAuth
	if cfg.Security.EnableAuth {
		if cfg.Security.JWTSecret == "" {
			logger.Fatal("security.jwt_secret is required when security.enable_auth is set")
		}
		auth := security.NewAuthMiddleware(security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration))
		requireTranslate = auth.RequireScope(security.ScopeTranslate)
		requirePreview = auth.RequireScope(security.ScopePreview)
	}
	{
		api.GET("/dialects", translationController.GetSupportedDialects)
		api.GET("/stats", translationController.GetStats)
		api.POST("/translate", requireTranslate, translationController.TranslateSQL)
		api.POST("/rules/preview", requirePreview, translationController.PreviewRules)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

func noAuth(c *gin.Context) { c.Next() }
