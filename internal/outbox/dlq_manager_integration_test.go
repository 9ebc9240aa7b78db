//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDLQManagerRequeuesAndQuarantines(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	seedActivities(t, ctx, pool, 2)

	dispatcher := NewDispatcher(pool, &stubProducer{err: errors.New("broker down")}, &stubRegistry{id: 3}, 10*time.Millisecond, 5)
	routed, err := dispatcher.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, routed)

	// One entry has already used up its retries.
	_, err = pool.Exec(ctx, `UPDATE outbox_dlq SET retry_count = 5 WHERE dlq_id = (SELECT MIN(dlq_id) FROM outbox_dlq)`)
	require.NoError(t, err)

	beforeRequeued := testutil.ToFloat64(dlqRequeuedCounter.WithLabelValues("wellness_activities", "activity.upserted"))

	manager := NewDLQManager(pool, 5, time.Minute)
	requeued, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, requeued)
	require.InDelta(t, beforeRequeued+1, testutil.ToFloat64(dlqRequeuedCounter.WithLabelValues("wellness_activities", "activity.upserted")), 0.0001)
	require.InDelta(t, 0, testutil.ToFloat64(dlqBacklogGauge), 0.0001)

	var quarantined int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL AND quarantine_reason = $1`, quarantineReason).Scan(&quarantined))
	require.Equal(t, 1, quarantined)

	producer := &stubProducer{}
	dispatcher = NewDispatcher(pool, producer, &stubRegistry{id: 3}, 10*time.Millisecond, 5)
	delivered, err := dispatcher.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, delivered)
}

func TestDLQManagerSchedulesRetryWhenRequeueFails(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	_, err := pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, reason)
         VALUES (1, 'activity', '9', 'activity.upserted', 'wellness_activities', '', '9', '{}'::jsonb, 'broker down')`)
	require.NoError(t, err)

	manager := NewDLQManager(pool, 5, time.Minute)
	requeued, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, requeued)

	var (
		retries int
		reason  string
		due     bool
	)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT retry_count, reason, next_retry_at > NOW() FROM outbox_dlq`).Scan(&retries, &reason, &due))
	require.Equal(t, 1, retries)
	require.Contains(t, reason, "missing schema_subject")
	require.True(t, due)

	requeued, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, requeued, "entry is not due yet")
}
