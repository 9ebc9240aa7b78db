package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"example.com/wellness/internal/bootstrap"
	"example.com/wellness/internal/config"
	"example.com/wellness/internal/observability"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	showUI := flag.Bool("show-ui", false, "run the browser with a visible window")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, closer, err := bootstrap.Logger("reclassify", cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	if err := cfg.Validate(true); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	if len(cfg.ReclassifyRules) == 0 {
		logger.Error("invalid configuration", "error", errors.New("RECLASSIFY_RULES is empty"))
		return 1
	}
	defer func() {
		if err := observability.Push(cfg.PushgatewayURL, "wellness_reclassify"); err != nil {
			logger.Warn("failed to push metrics", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}
	defer storage.Close()

	remote, closeRemote, err := bootstrap.NewRemote(cfg, logger, *showUI)
	if err != nil {
		logger.Error("fetch backend", "error", err)
		return 1
	}
	defer closeRemote()

	service := bootstrap.NewService(storage.Store, remote, cfg, logger)
	dispatcher, closeProducer := bootstrap.NewDispatcher(cfg, storage, logger)
	defer closeProducer()

	for _, rule := range cfg.ReclassifyRules {
		result, err := service.ReclassifyStored(ctx, rule)
		if err != nil {
			logger.Error("reclassify failed", "from_type_id", rule.FromTypeID, "error", err)
			return 1
		}
		logger.Info("reclassify committed",
			"from_type_id", rule.FromTypeID,
			"to_type_id", rule.To.TypeID,
			"reclassified", result.Reclassified,
			"timeouts", result.TimedOut,
			"updated", result.Updated,
		)
	}

	if dispatcher != nil {
		published, err := dispatcher.Drain(ctx)
		if err != nil {
			logger.Error("drain outbox", "error", err)
			return 1
		}
		logger.Info("outbox drained", "published", published)
	}
	return 0
}
