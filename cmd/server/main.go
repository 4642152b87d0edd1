package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newspulse/internal/core/services"
	httphandlers "newspulse/internal/handlers/http"
	"newspulse/internal/infrastructure/middleware"
	"newspulse/internal/infrastructure/monitoring"
	"newspulse/internal/infrastructure/publish"
	"newspulse/internal/infrastructure/realtime"
	"newspulse/internal/infrastructure/repositories/memory"
	"newspulse/pkg/config"
	"newspulse/pkg/logger"
	"newspulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "newspulse",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: os.Getenv("NEWSPULSE_ENV"),
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize monitoring
	collector := monitoring.NewPrometheusCollector()

	// Initialize repositories and services
	streamRepo := memory.NewMemoryStreamRepository()
	regionIndex := services.NewRegionIndex()
	tracker := services.NewActivityTracker(regionIndex, log)
	ranker := services.NewTrendRanker(tracker)
	registry := services.NewStreamRegistry(streamRepo, log)

	// Realtime transports
	socketServer := realtime.NewSocketServer(cfg.Realtime.SweepInterval, cfg.Realtime.IdleTimeout, log)
	socketServer.SetCollector(collector)
	if cfg.RateLimiting.Enabled {
		socketServer.SetMessageRate(cfg.RateLimiting.WebSocket.MessagesPerSecond, cfg.RateLimiting.WebSocket.Burst)
	}
	roomHub := realtime.NewRoomHub(registry, log)
	roomHub.SetCollector(collector)

	// Background loops share one cancellation root
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	socketServer.StartSweep(rootCtx)

	go func() {
		ticker := time.NewTicker(cfg.Trending.EvictInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				if evicted := tracker.EvictStale(cfg.Trending.EvictInactivity); evicted > 0 {
					log.Infow("evicted stale trend entries", "count", evicted)
				}
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.Streams.ReapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				if reaped := registry.ReapEnded(rootCtx, cfg.Streams.EndedRetention); reaped > 0 {
					log.Infow("reaped ended streams", "count", reaped)
				}
			}
		}
	}()

	// Gauge refresh loop
	go func() {
		ticker := time.NewTicker(cfg.Monitoring.GaugeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				collector.SetConnectedClients(socketServer.ConnectionCount())
				collector.SetActiveStreams(len(registry.ActiveStreams(rootCtx, nil)))
				collector.SetTrendEntries(len(tracker.EntriesSnapshot()))
				collector.SetRegionsTracked(regionIndex.TrackedRegions())
			}
		}
	}()

	// Optional trending fan-out to Redis for external consumers
	if cfg.Redis.Enabled {
		redisClient, err := publish.NewRedisClient(
			cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, log)
		if err != nil {
			log.Fatalw("failed to connect to Redis", "error", err)
		}
		defer redisClient.Close()

		publisher := publish.NewTrendingPublisher(
			redisClient, ranker, cfg.Redis.TrendingChannel, cfg.Redis.PublishInterval, log)
		go publisher.Start(rootCtx)
	}

	// Initialize HTTP handlers
	trendingHandler := httphandlers.NewTrendingHandler(tracker, ranker, regionIndex, collector)
	streamHandler := httphandlers.NewStreamHandler(registry)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	// Inside the tracing span so recorded errors land on a live span.
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	api := router.Group("/api/v1")
	{
		api.POST("/activity", trendingHandler.TrackActivity)
		api.GET("/trending", trendingHandler.GetTrending)
		api.GET("/regions/active", trendingHandler.GetActiveRegions)

		api.GET("/streams", streamHandler.ListStreams)
		api.GET("/streams/:id", streamHandler.GetStream)
		api.POST("/streams/:id/join", streamHandler.JoinStream)
		api.POST("/streams/:id/leave", streamHandler.LeaveStream)
		api.POST("/streams/:id/comments", streamHandler.AddComment)
		api.POST("/streams/:id/reactions", streamHandler.AddReaction)

		// Mutating broadcaster endpoints require authentication
		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
		{
			authed.POST("/streams", streamHandler.CreateStream)
			authed.POST("/streams/:id/end", streamHandler.EndStream)
		}
	}

	// Websocket endpoints
	router.GET("/ws", func(c *gin.Context) {
		socketServer.HandleSocket(c.Writer, c.Request)
	})
	router.GET("/rooms", func(c *gin.Context) {
		roomHub.HandleRoomSocket(c.Writer, c.Request)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"uptime":      time.Since(startTime).String(),
			"connections": socketServer.ConnectionCount(),
		})
	})

	// Readiness endpoint: all state is in-process, so ready once serving
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting NewsPulse server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down NewsPulse server...")
	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("NewsPulse server stopped")
}
