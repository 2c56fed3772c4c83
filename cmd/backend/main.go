// Package main provides the entry point for the Shortlytics URL shortener service.
//
//	@title			Shortlytics API
//	@version		1.0.0
//	@description	URL shortener with click analytics.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:3000
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"Shortlytics-Backend/internal/analytics"
	"Shortlytics-Backend/internal/auth"
	"Shortlytics-Backend/internal/cache"
	"Shortlytics-Backend/internal/config"
	"Shortlytics-Backend/internal/database"
	httpHandler "Shortlytics-Backend/internal/handler/http"
	"Shortlytics-Backend/internal/ratelimit"
	"Shortlytics-Backend/internal/repository"
	"Shortlytics-Backend/internal/repository/memory"
	"Shortlytics-Backend/internal/repository/postgres"
	"Shortlytics-Backend/internal/service"
	"Shortlytics-Backend/pkg/logger"
	"Shortlytics-Backend/pkg/useragent"
	"context"
	"errors"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "Shortlytics-Backend/docs" // Import swagger docs
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting Shortlytics service", zap.String("env", cfg.Env))

	// Initialize storage
	var (
		storage  repository.Storage
		dbPinger httpHandler.Pinger
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		storage = memory.New()
	case "postgres":
		db := mustOpenDatabase(cfg, log)
		defer func() {
			if err := database.Close(db, log); err != nil {
				log.Error("failed to close database connection", zap.Error(err))
			}
		}()
		storage = postgres.New(db, log)
		dbPinger = httpHandler.PingerFunc(func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		})
	default:
		log.Fatal("unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	// Initialize redirect cache; Redis outages are tolerated, redirects fall back to storage
	redirectCache := cache.New(cache.NewClient(cfg.Redis), cfg.Redis.TTL)
	defer func() {
		if err := redirectCache.Close(); err != nil {
			log.Error("failed to close redis client", zap.Error(err))
		}
	}()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	if err := redirectCache.Ping(pingCtx); err != nil {
		log.Warn("redis is unavailable, redirects will be served from storage", zap.Error(err))
	} else {
		log.Info("connected to redis", zap.Duration("ttl", cfg.Redis.TTL))
	}
	pingCancel()

	// Initialize User-Agent classifier
	classifier, err := useragent.NewClassifier(cfg.UserAgent.RegexesPath, log)
	if err != nil {
		log.Warn("failed to load User-Agent regexes, using bundled definitions", zap.Error(err))
		classifier, _ = useragent.NewClassifier("", log)
	}

	// Initialize analytics
	aggregator := analytics.NewAggregator(storage, classifier, log)
	processor := analytics.NewProcessor(aggregator, log, analytics.ProcessorConfig{
		WorkerCount:     cfg.Analytics.Workers,
		BufferSize:      cfg.Analytics.BufferSize,
		RetryAttempts:   cfg.Analytics.RetryAttempts,
		RetryDelay:      cfg.Analytics.RetryDelay,
		ShutdownTimeout: cfg.Analytics.ShutdownTimeout,
	})
	if err := processor.Start(); err != nil {
		log.Fatal("failed to start analytics processor", zap.Error(err))
	}

	// Initialize services
	services := httpHandler.Services{
		Registrar: service.NewRegistrar(storage, &cfg.URLShortener, log),
		Resolver:  service.NewResolver(storage, redirectCache, aggregator, processor, cfg.Redis.TTL, log),
		Reports:   service.NewReports(storage, log),
	}

	// Initialize JWT service for authentication
	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:           []byte(cfg.Auth.JWTSecret),
		AccessTokenDuration: cfg.Auth.AccessTokenTTL,
		Issuer:              cfg.Auth.Issuer,
	})
	authMiddleware := auth.NewMiddleware(jwtService, storage, cfg.CORS.AllowedOrigins, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window, httpHandler.ClientIP, log)
		go limiter.Run(ctx)
	}

	checks := httpHandler.HealthChecks{
		Database:       dbPinger,
		Cache:          redirectCache,
		CacheStats:     redirectCache.Stats,
		ProcessorStats: processor.GetStats,
		StatsRows:      storage,
	}

	httpAPIServer := httpHandler.NewServer(services, authMiddleware, limiter, checks, cfg.URLShortener.AllowAnonymous, log)

	server := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      httpAPIServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
			cancel()
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("shutting down Shortlytics service...")

	// Сначала перестаем принимать запросы, затем дописываем очередь аналитики
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	if err := processor.Stop(); err != nil {
		log.Error("failed to stop analytics processor", zap.Error(err))
	}
}

func mustOpenDatabase(cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations if enabled
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations (auto_migrate: true)")
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	return db
}
