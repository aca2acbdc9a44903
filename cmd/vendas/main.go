package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"vendas/internal/amqp"
	"vendas/internal/backend"
	"vendas/internal/cache"
	"vendas/internal/cli"
	"vendas/internal/core"
	apphttp "vendas/internal/http"
	vlog "vendas/internal/log"
	"vendas/internal/services"
	"vendas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", vlog.FieldError, err)
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger.Logger).CreateBackend(startupCtx, backendCfg)
	startupCancel()
	if err != nil {
		logger.Error("Failed to initialize backend", vlog.FieldError, err, vlog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	records := cache.NewLRUCache[[]core.Sale](cfg.CacheSize, cfg.CacheTTL)
	dashboard := services.NewDashboardService(result.Source, records, cfg.DataBackend, logger.Logger)

	deps := apphttp.Deps{
		Dashboard:    dashboard,
		Ready:        result.Ping,
		LastRefresh:  result.LastRefresh,
		Backend:      cfg.DataBackend,
		RateLimitRPM: cfg.RateLimitRPM,
		Logger:       logger,
	}

	var (
		scheduler  *services.RefreshScheduler
		amqpClient *amqp.Client
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if result.HasSnapshot() {
		refresher := services.NewRefreshService(result.Upstream, result.Snapshot, dashboard)
		deps.Refresher = refresher

		if cfg.RefreshInterval > 0 {
			scheduler = services.NewRefreshScheduler(refresher, cfg.RefreshInterval)
			if err := scheduler.Start(ctx); err != nil {
				logger.Error("Failed to start refresh scheduler", vlog.FieldError, err)
				os.Exit(1)
			}
		} else if n, err := refresher.Refresh(ctx, "startup"); err != nil {
			// Serve whatever the snapshot already holds
			logger.Warn("Startup refresh failed", vlog.FieldError, err)
		} else {
			logger.Info("Snapshot loaded", vlog.FieldRecords, n)
		}

		if cfg.AMQPURL != "" {
			amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Error("Failed to initialize AMQP client", vlog.FieldError, err)
				os.Exit(1)
			}
			deps.Publisher = amqpClient

			refreshWorker := worker.NewRefreshWorker(refresher)
			go func() {
				if err := amqpClient.ConsumeRefresh(ctx, refreshWorker.HandleRefreshMessage); err != nil && ctx.Err() == nil {
					logger.Error("Refresh consumer stopped", vlog.FieldError, err, vlog.FieldComponent, vlog.ComponentAMQP)
				}
			}()
			logger.Info("Consuming refresh requests", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		cancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer stopCancel()

		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", vlog.FieldError, err)
		}
		if scheduler != nil {
			if err := scheduler.Stop(stopCtx); err != nil {
				logger.Error("Refresh scheduler shutdown error", vlog.FieldError, err)
			}
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP client close error", vlog.FieldError, err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", vlog.FieldError, err)
			}
		}
	})

	logger.Info("Starting vendas server",
		"port", cfg.Port,
		vlog.FieldBackend, cfg.DataBackend,
		"snapshot", result.HasSnapshot(),
		"cache_size", cfg.CacheSize)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", vlog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
