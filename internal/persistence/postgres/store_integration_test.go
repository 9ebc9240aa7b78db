//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/wellness/internal/domain"
)

func TestStoreReconcilesAndRecordsOutbox(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	store := NewStore(pool)

	stat := domain.DailyStat{
		Date:       time.Date(2023, time.March, 14, 0, 0, 0, 0, time.UTC),
		DayOfWeek:  "Tuesday",
		TotalSteps: 12034,
		StepGoal:   10000,
		MaxStress:  77,
	}
	require.Equal(t, domain.OutcomeInserted, reconcileStat(t, ctx, store, stat))

	stat.TotalSteps = 12500
	stat.MaxStress = 0
	require.Equal(t, domain.OutcomeUpdated, reconcileStat(t, ctx, store, stat))

	stats, err := store.DailyStats(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, stat, stats[0])

	var events int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE event_type = 'daily_stat.upserted' AND aggregate_id = '2023-03-14'`).Scan(&events))
	require.Equal(t, 2, events)
}

func TestStoreRollbackDiscardsRowsAndEvents(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	store := NewStore(pool)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = domain.Reconcile(ctx, tx.WeighIns(), 7, domain.WeighIn{
		WeighInID:    7,
		Timestamp:    time.UnixMilli(1690012345000).UTC(),
		CalendarDate: time.Date(2023, time.July, 22, 0, 0, 0, 0, time.UTC),
		WeightKg:     81.647,
		WeightLbs:    180.0,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	weighIns, err := store.WeighIns(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Empty(t, weighIns)

	var events int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&events))
	require.Zero(t, events)
}

func TestStorePagesActivities(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	store := NewStore(pool, WithoutOutbox())

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	base := time.Date(2023, time.May, 1, 7, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 5; i++ {
		act := domain.Activity{
			ActivityID:     i,
			Name:           "Run",
			StartTimeLocal: base.Add(time.Duration(i) * 24 * time.Hour),
			StartTimeGMT:   base.Add(time.Duration(i)*24*time.Hour + 4*time.Hour),
			Type:           domain.ActivityType{TypeID: 1, TypeKey: "running", ParentTypeID: 17},
			Distance:       5000,
		}
		if i%2 == 0 {
			act.Type = domain.ActivityType{TypeID: 213, TypeKey: "ultimate_disc", ParentTypeID: 206}
		}
		_, err := domain.Reconcile(ctx, tx.Activities(), act.ActivityID, act)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit(ctx))

	page, next, err := store.Activities(ctx, domain.ActivityFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.EqualValues(t, 5, page[0].ActivityID)
	require.NotNil(t, next)

	page, next, err = store.Activities(ctx, domain.ActivityFilter{Limit: 2, After: next})
	require.NoError(t, err)
	require.EqualValues(t, []int64{3, 2}, []int64{page[0].ActivityID, page[1].ActivityID})
	require.NotNil(t, next)

	page, next, err = store.Activities(ctx, domain.ActivityFilter{Limit: 2, After: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Nil(t, next)

	ultimate, _, err := store.Activities(ctx, domain.ActivityFilter{TypeIDs: []int{213}})
	require.NoError(t, err)
	require.Len(t, ultimate, 2)
}

func reconcileStat(t *testing.T, ctx context.Context, store *Store, stat domain.DailyStat) domain.Outcome {
	t.Helper()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	outcome, err := domain.Reconcile(ctx, tx.DailyStats(), stat.Date, stat)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return outcome
}

func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("wellness"),
		postgrescontainer.WithUsername("wellness"),
		postgrescontainer.WithPassword("wellness"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runMigrations(t, ctx, pool)
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(resolvePath(t, "../../../db/postgres/migrations"), "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "expected at least one migration .up.sql file")
	sort.Strings(files)

	for _, file := range files {
		contents, err := os.ReadFile(file)
		require.NoErrorf(t, err, "read migration %s", file)
		_, err = pool.Exec(ctx, string(contents))
		require.NoErrorf(t, err, "execute migration %s", file)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
