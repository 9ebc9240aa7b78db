// Package pipeline orchestrates normalize -> reconcile -> commit for one sync run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/normalize"
	"example.com/wellness/internal/observability"
)

// Batch is the raw output of one fetch. Every list is reconciled in the same transaction.
type Batch struct {
	DailyStats []normalize.Raw
	Activities []normalize.Raw
	WeighIns   []normalize.Raw
}

// BatchResult summarises the reconcile decisions of a committed batch.
type BatchResult struct {
	Inserted     int
	Updated      int
	Reclassified int
	TimedOut     int
}

func (r *BatchResult) count(outcome domain.Outcome) {
	switch outcome {
	case domain.OutcomeInserted:
		r.Inserted++
	case domain.OutcomeUpdated:
		r.Updated++
	}
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithLogger overrides the logger used to report batch progress.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithReclassifier enables activity reclassification for the given rules.
func WithReclassifier(r Reclassifier, rules ...ReclassifyRule) Option {
	return func(s *Service) {
		s.reclassifier = r
		s.rules = append(s.rules, rules...)
	}
}

// WithReclassifyTimeout bounds how long one remote reclassification may take and how often it is polled.
func WithReclassifyTimeout(timeout, poll time.Duration) Option {
	return func(s *Service) {
		s.reclassifyTimeout = timeout
		s.pollInterval = poll
	}
}

// Service reconciles normalized records into the store.
type Service struct {
	store             domain.Store
	reclassifier      Reclassifier
	rules             []ReclassifyRule
	reclassifyTimeout time.Duration
	pollInterval      time.Duration
	logger            *slog.Logger
}

// NewService constructs a Service.
func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:             store,
		reclassifyTimeout: 30 * time.Second,
		pollInterval:      time.Second,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type normalized struct {
	stats      []domain.DailyStat
	activities []domain.Activity
	weighIns   []domain.WeighIn
}

// Sync normalizes every raw record of the batch, applies reclassification rules to activities and then
// reconciles everything in a single transaction. Any failure leaves the store untouched.
func (s *Service) Sync(ctx context.Context, batch Batch) (BatchResult, error) {
	records, err := s.normalize(batch)
	if err != nil {
		observability.RecordBatchFailure("format")
		return BatchResult{}, err
	}

	var result BatchResult
	for i, act := range records.activities {
		updated, outcome, err := s.reclassify(ctx, act)
		if err != nil {
			observability.RecordBatchFailure("reclassify")
			return BatchResult{}, err
		}
		switch outcome {
		case reclassifyApplied:
			result.Reclassified++
		case reclassifyTimedOut:
			result.TimedOut++
		}
		records.activities[i] = updated
	}

	return s.apply(ctx, result, records)
}

// SyncDailyStats reconciles wellness rows only.
func (s *Service) SyncDailyStats(ctx context.Context, raws []normalize.Raw) (BatchResult, error) {
	return s.Sync(ctx, Batch{DailyStats: raws})
}

// SyncActivities reconciles activities only, applying reclassification rules first.
func (s *Service) SyncActivities(ctx context.Context, raws []normalize.Raw) (BatchResult, error) {
	return s.Sync(ctx, Batch{Activities: raws})
}

// SyncWeighIns reconciles weigh-ins only.
func (s *Service) SyncWeighIns(ctx context.Context, raws []normalize.Raw) (BatchResult, error) {
	return s.Sync(ctx, Batch{WeighIns: raws})
}

func (s *Service) normalize(batch Batch) (normalized, error) {
	out := normalized{
		stats:      make([]domain.DailyStat, 0, len(batch.DailyStats)),
		activities: make([]domain.Activity, 0, len(batch.Activities)),
		weighIns:   make([]domain.WeighIn, 0, len(batch.WeighIns)),
	}
	for i, raw := range batch.DailyStats {
		stat, rec, err := normalize.DailyStat(raw)
		if err != nil {
			return normalized{}, fmt.Errorf("daily stat %d: %w", i, err)
		}
		s.logDropped("daily_stat", rec)
		out.stats = append(out.stats, stat)
	}
	for i, raw := range batch.Activities {
		act, rec, err := normalize.Activity(raw)
		if err != nil {
			return normalized{}, fmt.Errorf("activity %d: %w", i, err)
		}
		s.logDropped("activity", rec)
		out.activities = append(out.activities, act)
	}
	for i, raw := range batch.WeighIns {
		w, rec, err := normalize.WeighIn(raw)
		if err != nil {
			return normalized{}, fmt.Errorf("weigh-in %d: %w", i, err)
		}
		s.logDropped("weigh_in", rec)
		out.weighIns = append(out.weighIns, w)
	}
	return out, nil
}

func (s *Service) logDropped(entity string, rec normalize.Record) {
	if dropped := rec.Dropped(); len(dropped) > 0 {
		s.logger.Debug("dropped unknown fields", "entity", entity, "fields", dropped)
	}
}

func (s *Service) apply(ctx context.Context, result BatchResult, records normalized) (res BatchResult, err error) {
	started := time.Now()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		observability.RecordBatchFailure("begin")
		return BatchResult{}, fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
		}
	}()

	for _, stat := range records.stats {
		outcome, err := domain.Reconcile(ctx, tx.DailyStats(), stat.Date, stat)
		if err != nil {
			observability.RecordBatchFailure("store")
			return BatchResult{}, fmt.Errorf("reconcile daily stat %s: %w", domain.FormatDate(stat.Date), err)
		}
		result.count(outcome)
		observability.RecordReconciled("daily_stat", string(outcome))
	}
	for _, act := range records.activities {
		outcome, err := domain.Reconcile(ctx, tx.Activities(), act.ActivityID, act)
		if err != nil {
			observability.RecordBatchFailure("store")
			return BatchResult{}, fmt.Errorf("reconcile activity %d: %w", act.ActivityID, err)
		}
		result.count(outcome)
		observability.RecordReconciled("activity", string(outcome))
	}
	for _, w := range records.weighIns {
		outcome, err := domain.Reconcile(ctx, tx.WeighIns(), w.WeighInID, w)
		if err != nil {
			observability.RecordBatchFailure("store")
			return BatchResult{}, fmt.Errorf("reconcile weigh-in %d: %w", w.WeighInID, err)
		}
		result.count(outcome)
		observability.RecordReconciled("weigh_in", string(outcome))
	}

	if err = tx.Commit(ctx); err != nil {
		observability.RecordBatchFailure("commit")
		var commitErr *domain.StoreCommitFailure
		if errors.As(err, &commitErr) {
			return BatchResult{}, err
		}
		return BatchResult{}, &domain.StoreCommitFailure{Err: err}
	}

	observability.ObserveBatch(started)
	s.logger.Info("batch committed",
		"daily_stats", len(records.stats),
		"activities", len(records.activities),
		"weigh_ins", len(records.weighIns),
		"inserted", result.Inserted,
		"updated", result.Updated,
		"reclassified", result.Reclassified,
		"reclassify_timeouts", result.TimedOut,
	)
	return result, nil
}
