package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"clubstats/internal/aggregate"
	"clubstats/internal/amqp"
	"clubstats/internal/backend"
	"clubstats/internal/cache"
	"clubstats/internal/cli"
	"clubstats/internal/controller"
	"clubstats/internal/core"
	"clubstats/internal/dataset"
	apphttp "clubstats/internal/http"
	"clubstats/internal/log"
	"clubstats/internal/selection"
)

const (
	loadTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
	forwardQueue    = 16
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	normalizer := cli.InitNormalizer(logger, cfg.ClubAliasesFile)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), loadTimeout)
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(loadCtx, bcfg)
	if err != nil {
		cancelLoad()
		logger.Error("Failed to initialize data backend", log.FieldError, err, log.FieldBackend, bcfg.Type.String())
		os.Exit(1)
	}

	dataLog := log.NewStructuredLogger(logger.WithComponent(log.ComponentDataset))
	store, err := dataset.LoadFrom(loadCtx, result.Backend, normalizer)
	cancelLoad()
	if err != nil {
		errType := log.ErrorTypeConfiguration
		var loadErr *core.LoadError
		if errors.As(err, &loadErr) {
			errType = log.ErrorTypeValidation
		}
		dataLog.LogError(context.Background(), "Failed to load datasets", err,
			log.ComponentDataset, log.OpLoad,
			log.LogFields{"error_type": errType, log.FieldBackend: bcfg.Type.String()})
		cleanupBackend(logger, result)
		os.Exit(1)
	}

	for _, w := range store.Warnings() {
		dataLog.LogDataWarning(context.Background(), string(w.Kind), string(w.Dataset), w.Club, w.Row, w.Detail)
	}
	logger.Info("Datasets loaded",
		"clubs", len(store.Universe()),
		"roster_rows", len(store.Roster()),
		"membership_rows", len(store.Membership()),
		"session_rows", len(store.Sessions()),
		"warnings", len(store.Warnings()))

	state := selection.New(store)
	cached := aggregate.NewCached(aggregate.New(store), cfg.CacheSize, cfg.CacheTTL)

	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache))
	cacheManager.Register(cached.Cache())
	if cfg.CacheTTL > 0 {
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	ctrlLogger := logger.WithComponent(log.ComponentController)
	ctrl := controller.New(state, cached, controller.Options{
		Workers: cfg.Workers,
		Logger:  ctrlLogger,
	})
	viewLog := log.NewStructuredLogger(ctrlLogger)
	ctrl.Subscribe(func(v controller.View) {
		viewLog.LogViewPublished(context.Background(), v.Version, len(v.Selection.Clubs), v.Selection.All)
	})

	var amqpClient *amqp.Client
	var forwarder *amqp.Forwarder
	if cfg.AMQPURL != "" {
		amqpLogger := logger.WithComponent(log.ComponentAMQP)
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, amqpLogger)
		if err != nil {
			logger.Warn("AMQP unavailable, dashboard views will not be forwarded", log.FieldError, err)
		} else {
			forwarder = amqp.NewForwarder(amqpClient, forwardQueue, amqpLogger)
			ctrl.Subscribe(forwarder.Handle)
			logger.Info("Forwarding dashboard views over AMQP", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
		}
	}

	opts := apphttp.Options{
		Logger:             logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheStats:         cached.Cache().Stats,
	}
	if p, ok := result.Backend.(interface{ Ping(context.Context) error }); ok {
		opts.Ready = p.Ping
	}
	srv := apphttp.NewServer(":"+cfg.Port, ctrl, opts)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
	})

	go func() {
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Controller stopped", log.FieldError, err)
		}
	}()
	if forwarder != nil {
		go forwarder.Run(ctx)
	}

	logger.Info("Starting server",
		"port", cfg.Port,
		log.FieldBackend, bcfg.Type.String(),
		"workers", cfg.Workers)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed to start", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)

	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
	cleanupBackend(logger, result)
	logger.Info("Server stopped")
}

func cleanupBackend(logger *log.Logger, result *backend.BackendResult) {
	if result == nil || result.Cleanup == nil {
		return
	}
	if err := result.Cleanup(); err != nil {
		logger.Warn("Backend cleanup failed", log.FieldError, err)
	}
}
