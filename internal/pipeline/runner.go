package pipeline

import (
	"context"
	"fmt"
	"time"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/normalize"
)

// Fetcher pulls raw flat records for a date range from the remote platform.
type Fetcher interface {
	FetchWellness(ctx context.Context, from, to time.Time, metricIDs []int) ([]normalize.Raw, error)
	FetchActivities(ctx context.Context, from, to time.Time) ([]normalize.Raw, error)
	FetchWeighIns(ctx context.Context, from, to time.Time) ([]normalize.Raw, error)
}

// RunRequest describes one sync run.
type RunRequest struct {
	From           time.Time
	To             time.Time
	MetricIDs      []int
	SkipActivities bool
	SkipWeighIns   bool
}

// Window returns the request range as calendar dates, swapped when given in reverse.
func (r RunRequest) Window() (time.Time, time.Time) {
	from, to := domain.DateOf(r.From), domain.DateOf(r.To)
	if to.Before(from) {
		from, to = to, from
	}
	return from, to
}

// Run fetches everything requested and reconciles it as a single batch. A fetch failure aborts the run
// before the store is touched.
func (s *Service) Run(ctx context.Context, fetcher Fetcher, req RunRequest) (BatchResult, error) {
	from, to := req.Window()
	logger := s.logger.With("from", domain.FormatDate(from), "to", domain.FormatDate(to))
	logger.Info("sync started")

	var batch Batch
	stats, err := fetcher.FetchWellness(ctx, from, to, req.MetricIDs)
	if err != nil {
		return BatchResult{}, fmt.Errorf("fetch wellness: %w", err)
	}
	batch.DailyStats = stats

	if !req.SkipActivities {
		acts, err := fetcher.FetchActivities(ctx, from, to)
		if err != nil {
			return BatchResult{}, fmt.Errorf("fetch activities: %w", err)
		}
		batch.Activities = acts
	}
	if !req.SkipWeighIns {
		weighIns, err := fetcher.FetchWeighIns(ctx, from, to)
		if err != nil {
			return BatchResult{}, fmt.Errorf("fetch weigh-ins: %w", err)
		}
		batch.WeighIns = weighIns
	}

	logger.Info("fetch complete",
		"daily_stats", len(batch.DailyStats),
		"activities", len(batch.Activities),
		"weigh_ins", len(batch.WeighIns),
	)
	return s.Sync(ctx, batch)
}
