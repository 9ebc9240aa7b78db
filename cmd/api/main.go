package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/wellness/internal/api"
	"example.com/wellness/internal/auth"
	"example.com/wellness/internal/bootstrap"
	"example.com/wellness/internal/config"
	httptransport "example.com/wellness/internal/transport/http"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, closer, err := bootstrap.Logger("api", cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	if err := cfg.Validate(false); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	if cfg.JWTSecret == "" {
		logger.Error("invalid configuration", "error", errors.New("JWT_SECRET is required"))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}
	defer storage.Close()

	dispatcher, closeProducer := bootstrap.NewDispatcher(cfg, storage, logger)
	defer closeProducer()
	if dispatcher != nil {
		go dispatcher.Start(ctx)
	}

	handler := api.NewHandler(storage.Store, cfg.AnnualStepTarget)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, auth.PublicPaths)
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.RequestLogger(logger, authMiddleware.Wrap(mux)))

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api listening", "address", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	status := 0
	select {
	case <-shutdownCh:
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", "error", err)
			status = 1
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
	return status
}
