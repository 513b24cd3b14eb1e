package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freshmeal/matcher-service/config"
	"github.com/freshmeal/matcher-service/internal/catalog"
	"github.com/freshmeal/matcher-service/internal/database"
	"github.com/freshmeal/matcher-service/internal/handlers"
	"github.com/freshmeal/matcher-service/internal/jobs"
	"github.com/freshmeal/matcher-service/internal/matching"
	"github.com/freshmeal/matcher-service/internal/middleware"
	"github.com/freshmeal/matcher-service/internal/sweepers"
	"github.com/freshmeal/matcher-service/internal/taskqueue"
	"github.com/freshmeal/matcher-service/internal/telemetry"
	"github.com/freshmeal/matcher-service/internal/workers"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting matcher service")

	ctx := context.Background()

	telCfg := telemetry.GetConfigFromEnv()
	telCfg.Enabled = telCfg.Enabled || cfg.Telemetry.Enabled
	if cfg.Telemetry.Endpoint != "" {
		telCfg.Endpoint = cfg.Telemetry.Endpoint
	}
	telemetryCleanup := telemetry.MustInit(ctx, telCfg)
	defer telemetryCleanup(context.Background())

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	pool := database.Pool()
	reader := catalog.NewPostgresReader(pool)
	sink := matching.NewPostgresSink(pool)
	engine := matching.NewEngine(reader, nil, sink, matching.EngineConfig{
		QueryConcurrency:     cfg.Matching.QueryConcurrency,
		BatchConcurrency:     cfg.Matching.BatchConcurrency,
		QueryTimeout:         cfg.Matching.QueryTimeout,
		DefaultMinConfidence: cfg.Matching.MinConfidence,
		DefaultMaxResults:    cfg.Matching.MaxResults,
	})

	queue := taskqueue.New(pool)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	matchWorker := workers.StartMatchWorker(workerCtx, queue, engine)

	taskSweeper := sweepers.NewTaskQueueSweeper(pool, logger, 5*time.Minute)
	go taskSweeper.Start(workerCtx)

	cleanup := jobs.NewCleanupScheduler(pool, jobs.DefaultCleanupConfig())
	go cleanup.Start(workerCtx, 24*time.Hour)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.RateLimit.RequestsPerSecond),
		BurstSize:         cfg.RateLimit.BurstSize,
	}))
	{
		internal.GET("/health", handlers.HealthCheck)
		handlers.RegisterMatchingRoutes(internal, engine, queue, pool)
		handlers.RegisterCatalogRoutes(internal, reader)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	taskSweeper.Stop()
	stopWorkers()
	matchWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "matcher-service").Logger()
	log.Logger = logger
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
