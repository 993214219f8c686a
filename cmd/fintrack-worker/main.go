package main

import (
	"context"
	"errors"
	"os"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("fintrack-worker needs AMQP_URL to receive change notifications")
		os.Exit(1)
	}
	if cfg.DataBackend != string(backend.SQLiteBackend) {
		logger.Error("fintrack-worker needs a shared store", "backend", cfg.DataBackend, "want", backend.SQLiteBackend)
		os.Exit(1)
	}

	reg, mc := cli.NewMetrics(cfg.MetricsNamespace)
	result := cli.InitBackend(context.Background(), logger, cfg, mc)
	if result.Publisher == nil {
		logger.Error("AMQP broker unreachable")
		_ = result.Close()
		os.Exit(1)
	}

	exporter, err := backend.NewExporter(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize report exporter", "error", err)
		os.Exit(1)
	}
	if cfg.SheetsEnabled() {
		logger.Info("Exporting reports to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - reports are kept in memory only")
	}
	sink := worker.NewReportSink(exporter, mc)

	reports := cache.NewLRUCache[*services.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	analysis := services.NewAnalysisService(result.Backend, reports, mc)

	dispatcherCfg := services.DefaultDispatcherConfig()
	dispatcherCfg.Debounce = cfg.RecomputeDebounce
	dispatcherCfg.OnReport = sink.OnReport
	dispatcher := services.NewDispatcher(analysis, mc, dispatcherCfg)

	changes := worker.NewChangeWorker(result.Publisher, dispatcher)
	metricsSrv := cli.ServeMetrics(logger, cfg.WorkerMetricsAddr, reg)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := dispatcher.Stop(ctx); err != nil {
			logger.Error("Dispatcher shutdown error", "error", err)
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if err := dispatcher.Start(ctx); err != nil {
		logger.Error("Failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := changes.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Change consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
