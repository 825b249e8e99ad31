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
	"go.uber.org/zap"

	"github.com/forgo/accord/internal/bootstrap"
	"github.com/forgo/accord/internal/config"
	"github.com/forgo/accord/internal/handler"
	"github.com/forgo/accord/internal/jobs"
	"github.com/forgo/accord/internal/middleware"
	"github.com/forgo/accord/pkg/jwt"
)

var version = "dev"

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg.Server.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize persistence
	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	resultCache, closeCache, err := bootstrap.OpenCache(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = closeCache() }()

	publisher, closePublisher, err := bootstrap.OpenPublisher(cfg.AMQP, logger)
	if err != nil {
		logger.Fatal("failed to connect to amqp", zap.Error(err))
	}
	defer func() { _ = closePublisher() }()

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		logger.Fatal("failed to initialize JWT service", zap.Error(err))
	}

	// Initialize services
	svcs, err := bootstrap.NewServices(cfg.Matching, stores, bootstrap.Dependencies{
		Cache:     resultCache,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}
	logger.Info("scoring engine ready", zap.String("catalog_version", svcs.Engine.CatalogVersion()))

	// Background jobs
	recomputer := jobs.NewRecomputer(jobs.RecomputerConfig{
		Matches:  svcs.Matches,
		Interval: cfg.Matching.RecomputeInterval,
		Logger:   logger,
	})
	expirer := jobs.NewHandshakeExpirer(jobs.HandshakeExpirerConfig{
		Handshakes: svcs.Handshakes,
		TTL:        cfg.Matching.HandshakeTTL,
		Interval:   cfg.Matching.ExpireInterval,
		Logger:     logger,
	})
	recomputer.Start()
	expirer.Start()

	signalLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		PerMinute: cfg.Server.SignalsPerMinute,
		Burst:     cfg.Server.SignalBurst,
	})
	defer signalLimiter.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Validator:      jwtService,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DevTools:       cfg.Server.DevTools,
		SignalLimiter:  signalLimiter,
		Health:         handler.NewHealthHandler(stores, version),
		Survey:         handler.NewSurveyHandler(svcs.Survey),
		Compatibility:  handler.NewCompatibilityHandler(svcs.Compatibility, svcs.Matches),
		Handshake: handler.NewHandshakeHandler(handler.HandshakeHandlerConfig{
			HandshakeService: svcs.Handshakes,
			AutoAccept:       svcs.AutoAccept,
			Logger:           logger,
		}),
	})
	if cfg.Server.DevTools {
		logger.Warn("dev tools enabled")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
			zap.String("store", cfg.Store.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	recomputer.Stop()
	expirer.Stop()

	logger.Info("server exited")
}
