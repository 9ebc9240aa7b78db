package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/wellness/internal/bootstrap"
	"example.com/wellness/internal/config"
	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/fetch"
	"example.com/wellness/internal/observability"
	"example.com/wellness/internal/pipeline"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	yesterday := domain.FormatDate(time.Now().AddDate(0, 0, -1))
	from := flag.String("from", "", "first date to sync, YYYY-MM-DD (defaults to -end)")
	end := flag.String("end", yesterday, "last date to sync, YYYY-MM-DD")
	metricIDs := flag.String("metric-ids", "", "comma separated wellness metric ids (defaults to all known)")
	showUI := flag.Bool("show-ui", false, "run the browser with a visible window")
	skipActivities := flag.Bool("skip-activities", false, "do not sync activities")
	skipWeighIns := flag.Bool("skip-weighins", false, "do not sync weigh-ins")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, closer, err := bootstrap.Logger("sync", cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	req, err := buildRequest(*from, *end, *metricIDs, *skipActivities, *skipWeighIns)
	if err == nil {
		err = cfg.Validate(true)
	}
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, req, *showUI); err != nil {
		logger.Error("sync failed", "error", err)
		return 1
	}
	return 0
}

func buildRequest(from, end, metricIDs string, skipActivities, skipWeighIns bool) (pipeline.RunRequest, error) {
	endDate, err := domain.ParseDate(end)
	if err != nil {
		return pipeline.RunRequest{}, fmt.Errorf("-end: %w", err)
	}
	fromDate := endDate
	if from != "" {
		if fromDate, err = domain.ParseDate(from); err != nil {
			return pipeline.RunRequest{}, fmt.Errorf("-from: %w", err)
		}
	}
	ids, err := fetch.ParseMetricIDs(metricIDs)
	if err != nil {
		return pipeline.RunRequest{}, fmt.Errorf("-metric-ids: %w", err)
	}
	return pipeline.RunRequest{
		From:           fromDate,
		To:             endDate,
		MetricIDs:      ids,
		SkipActivities: skipActivities,
		SkipWeighIns:   skipWeighIns,
	}, nil
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, req pipeline.RunRequest, showUI bool) (err error) {
	defer func() {
		if pushErr := observability.Push(cfg.PushgatewayURL, "wellness_sync"); pushErr != nil {
			logger.Warn("failed to push metrics", "error", pushErr)
		}
	}()

	storage, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	remote, closeRemote, err := bootstrap.NewRemote(cfg, logger, showUI)
	if err != nil {
		return err
	}
	defer closeRemote()

	service := bootstrap.NewService(storage.Store, remote, cfg, logger)
	result, err := service.Run(ctx, remote, req)
	if err != nil {
		var commitErr *domain.StoreCommitFailure
		if errors.As(err, &commitErr) {
			logger.Error("store commit failed, nothing was written", "error", commitErr.Err)
		}
		return err
	}
	logger.Info("sync committed",
		"inserted", result.Inserted,
		"updated", result.Updated,
		"reclassified", result.Reclassified,
		"reclassify_timeouts", result.TimedOut,
	)

	dispatcher, closeProducer := bootstrap.NewDispatcher(cfg, storage, logger)
	defer closeProducer()
	if dispatcher != nil {
		published, err := dispatcher.Drain(ctx)
		if err != nil {
			return fmt.Errorf("drain outbox: %w", err)
		}
		logger.Info("outbox drained", "published", published)
	}
	return nil
}
