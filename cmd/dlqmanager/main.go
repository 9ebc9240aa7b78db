package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/wellness/internal/bootstrap"
	"example.com/wellness/internal/config"
	"example.com/wellness/internal/observability"
	"example.com/wellness/internal/outbox"
)

const defaultDLQBatchSize = 50

func main() {
	os.Exit(execute())
}

func execute() int {
	once := flag.Bool("once", false, "process one batch, push metrics and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, closer, err := bootstrap.Logger("dlqmanager", cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	if cfg.StoreDriver != config.DriverPostgres {
		logger.Error("invalid configuration", "error", errors.New("the dead-letter table requires STORE_DRIVER=postgres"))
		return 1
	}
	if err := cfg.Validate(false); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}
	defer storage.Close()

	manager := outbox.NewDLQManager(storage.Pool, cfg.DLQMaxRetries, cfg.DLQBaseDelay)

	if *once {
		requeued, err := manager.RunOnce(ctx, defaultDLQBatchSize)
		if pushErr := observability.Push(cfg.PushgatewayURL, "wellness_dlqmanager"); pushErr != nil {
			logger.Warn("failed to push metrics", "error", pushErr)
		}
		if err != nil {
			logger.Error("dlq manager error", "error", err)
			return 1
		}
		logger.Info("dlq manager processed entries", "requeued", requeued)
		return 0
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("dlq manager metrics listening", "address", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	ticker := time.NewTicker(cfg.DLQPollInterval)
	defer ticker.Stop()
	logger.Info("dlq manager started", "interval", cfg.DLQPollInterval, "max_retries", cfg.DLQMaxRetries)

loop:
	for {
		select {
		case <-ctx.Done():
			logger.Info("dlq manager received shutdown signal")
			break loop
		case <-ticker.C:
			requeued, err := manager.RunOnce(ctx, defaultDLQBatchSize)
			if err != nil {
				logger.Error("dlq manager error", "error", err)
			} else if requeued > 0 {
				logger.Info("dlq manager processed entries", "requeued", requeued)
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}
	return 0
}
