package main

import (
	"context"
	"os"

	"fintrack/internal/adapters"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	reg, mc := cli.NewMetrics(cfg.MetricsNamespace)
	result := cli.InitBackend(context.Background(), logger, cfg, mc)

	if result.Publisher != nil {
		logger.Info("AMQP client initialized - new occurrences trigger report recomputes")
	} else {
		logger.Info("AMQP disabled - running processor against the store only")
	}

	// Occurrences go through the ledger so they are validated and announced
	// like any other write.
	st := adapters.NewNotifyingStore(result.Backend, result.Notifier(nil))
	processor := services.NewRecurringProcessor(result.Backend, services.NewLedgerService(st),
		services.RecurringProcessorConfig{Interval: cfg.RecurringInterval})

	metricsSrv := cli.ServeMetrics(logger, cfg.WorkerMetricsAddr, reg)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Processor shutdown error", "error", err)
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Recurring transaction processor configured",
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend)
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start processor", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker stopped")
}
