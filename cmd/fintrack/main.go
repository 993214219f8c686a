package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/adapters"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting fintrack")

	cfg := cli.LoadAndValidateConfig(logger)
	reg, mc := cli.NewMetrics(cfg.MetricsNamespace)
	result := cli.InitBackend(context.Background(), logger, cfg, mc)

	reports := cache.NewLRUCache[*services.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(reports)
	cacheManager.StartCleanup(time.Minute)

	analysis := services.NewAnalysisService(result.Backend, reports, mc)

	// With a broker the worker owns report export; otherwise it runs here.
	dispatcherCfg := services.DefaultDispatcherConfig()
	dispatcherCfg.Debounce = cfg.RecomputeDebounce
	if result.Publisher == nil {
		exporter, err := backend.NewExporter(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize report exporter", "error", err)
			os.Exit(1)
		}
		dispatcherCfg.OnReport = worker.NewReportSink(exporter, mc).OnReport
	}
	dispatcher := services.NewDispatcher(analysis, mc, dispatcherCfg)

	st := adapters.NewNotifyingStore(result.Backend, result.Notifier(dispatcher))

	deps := apphttp.Deps{
		Ledger:   services.NewLedgerService(st),
		Goals:    services.NewGoalService(st),
		Budgets:  services.NewBudgetService(st),
		Analysis: analysis,
		Gatherer: reg,
	}
	if p, ok := result.Backend.(apphttp.Pinger); ok {
		deps.Ready = p
	}
	srv := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		RateLimitRPM:   cfg.RateLimitRPM,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger.WithComponent(log.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := dispatcher.Stop(ctx); err != nil {
			logger.Error("Dispatcher shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if err := dispatcher.Start(ctx); err != nil {
		logger.Error("Failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting HTTP server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", result.Publisher != nil,
		"sheets", cfg.SheetsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
