package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/persistence"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "wellness.db"))
	require.NoError(t, err)
	store, err := New(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDailyStatOverwriteZeroesDroppedMetrics(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	day := time.Date(2023, time.March, 14, 0, 0, 0, 0, time.UTC)

	stat := domain.DailyStat{Date: day, DayOfWeek: "Tuesday", TotalSteps: 12034, StepGoal: 10000, MaxStress: 77}
	require.Equal(t, domain.OutcomeInserted, reconcile(t, store, func(tx domain.Tx) (domain.Outcome, error) {
		return domain.Reconcile(ctx, tx.DailyStats(), day, stat)
	}))

	stat.TotalSteps = 12500
	stat.MaxStress = 0
	require.Equal(t, domain.OutcomeUpdated, reconcile(t, store, func(tx domain.Tx) (domain.Outcome, error) {
		return domain.Reconcile(ctx, tx.DailyStats(), day, stat)
	}))
	// Identical values still count as an update.
	require.Equal(t, domain.OutcomeUpdated, reconcile(t, store, func(tx domain.Tx) (domain.Outcome, error) {
		return domain.Reconcile(ctx, tx.DailyStats(), day, stat)
	}))

	stats, err := store.DailyStats(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, []domain.DailyStat{stat}, stats)
}

func TestRollbackDiscardsBatch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	ts := time.UnixMilli(1690012345000).UTC()
	_, err = domain.Reconcile(ctx, tx.WeighIns(), 7, domain.WeighIn{WeighInID: 7, Timestamp: ts, CalendarDate: domain.DateOf(ts), WeightKg: 81.647, WeightLbs: 180})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, tx.Rollback(ctx))

	weighIns, err := store.WeighIns(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Empty(t, weighIns)
}

func TestTableGuardsKeys(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	act := domain.Activity{
		ActivityID:     1,
		StartTimeLocal: time.Date(2023, time.May, 1, 7, 0, 0, 0, time.UTC),
		StartTimeGMT:   time.Date(2023, time.May, 1, 11, 0, 0, 0, time.UTC),
	}
	require.ErrorIs(t, tx.Activities().Update(ctx, act), persistence.ErrNotFound)
	require.NoError(t, tx.Activities().Insert(ctx, act))
	require.ErrorIs(t, tx.Activities().Insert(ctx, act), persistence.ErrDuplicateKey)
}

func TestActivitiesPageAndFilter(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	base := time.Date(2023, time.May, 1, 7, 0, 0, 0, time.UTC)
	reconcile(t, store, func(tx domain.Tx) (domain.Outcome, error) {
		for i := int64(1); i <= 5; i++ {
			act := domain.Activity{
				ActivityID:     i,
				Name:           "Run",
				StartTimeLocal: base.AddDate(0, 0, int(i)),
				StartTimeGMT:   base.AddDate(0, 0, int(i)).Add(4 * time.Hour),
				Type:           domain.ActivityType{TypeID: 1, TypeKey: "running", ParentTypeID: 17},
				Distance:       5000,
			}
			if i%2 == 0 {
				act.Type = domain.ActivityType{TypeID: 213, TypeKey: "ultimate_disc", ParentTypeID: 206}
				act.TypeCorrected = true
				act.OriginalTypeID = 11
			}
			if _, err := domain.Reconcile(ctx, tx.Activities(), act.ActivityID, act); err != nil {
				return "", err
			}
		}
		return domain.OutcomeInserted, nil
	})

	var ids []int64
	var next *domain.Cursor
	for {
		page, cursor, err := store.Activities(ctx, domain.ActivityFilter{Limit: 2, After: next})
		require.NoError(t, err)
		for _, a := range page {
			ids = append(ids, a.ActivityID)
		}
		if cursor == nil {
			break
		}
		next = cursor
	}
	require.Equal(t, []int64{5, 4, 3, 2, 1}, ids)

	ultimate, _, err := store.Activities(ctx, domain.ActivityFilter{TypeIDs: []int{213}})
	require.NoError(t, err)
	require.Len(t, ultimate, 2)
	require.True(t, ultimate[0].TypeCorrected)
	require.Equal(t, 11, ultimate[0].OriginalTypeID)

	window, _, err := store.Activities(ctx, domain.ActivityFilter{From: base.AddDate(0, 0, 2), To: base.AddDate(0, 0, 3)})
	require.NoError(t, err)
	require.Len(t, window, 2)
	require.EqualValues(t, 3, window[0].ActivityID)
	require.Equal(t, base.AddDate(0, 0, 3), window[0].StartTimeLocal)
}

func reconcile(t *testing.T, store *Store, fn func(domain.Tx) (domain.Outcome, error)) domain.Outcome {
	t.Helper()

	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	outcome, err := fn(tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return outcome
}
