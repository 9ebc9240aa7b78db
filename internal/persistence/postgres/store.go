// Package postgres implements the reconcile store on Postgres via pgx. Every reconciled row also writes an
// outbox event inside the same transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/events"
	"example.com/wellness/internal/persistence"
)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for daily stats, activities, weigh-ins and outbox events.
type Store struct {
	pool   *pgxpool.Pool
	outbox bool
	now    func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithoutOutbox disables event recording, for deployments without Kafka.
func WithoutOutbox() Option {
	return func(s *Store) { s.outbox = false }
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, outbox: true, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin opens the batch transaction.
func (s *Store) Begin(ctx context.Context) (domain.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &batchTx{store: s, tx: tx}, nil
}

type batchTx struct {
	store *Store
	tx    pgx.Tx
}

func (b *batchTx) DailyStats() domain.Table[time.Time, domain.DailyStat] {
	return &table[time.Time, domain.DailyStat]{batch: b, codec: dailyStatCodec}
}

func (b *batchTx) Activities() domain.Table[int64, domain.Activity] {
	return &table[int64, domain.Activity]{batch: b, codec: activityCodec}
}

func (b *batchTx) WeighIns() domain.Table[int64, domain.WeighIn] {
	return &table[int64, domain.WeighIn]{batch: b, codec: weighInCodec}
}

func (b *batchTx) Commit(ctx context.Context) error { return b.tx.Commit(ctx) }

func (b *batchTx) Rollback(ctx context.Context) error {
	if err := b.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// codec describes how one entity maps onto its table.
type codec[K comparable, R domain.Keyed[K]] struct {
	aggregate string
	eventType string
	selectSQL string
	insertSQL string
	updateSQL string
	scan      func(pgx.Row) (R, error)
	values    func(R) []any
	event     func(R, domain.Outcome, time.Time) any

	// aggregateID renders the natural key as the outbox aggregate id and partition key.
	aggregateID func(K) string
}

type table[K comparable, R domain.Keyed[K]] struct {
	batch *batchTx
	codec codec[K, R]
}

// Find locks the row so a concurrent batch cannot overwrite it between Find and Update.
func (t *table[K, R]) Find(ctx context.Context, key K) (*R, error) {
	rec, err := t.codec.scan(t.batch.tx.QueryRow(ctx, t.codec.selectSQL+" FOR UPDATE", key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (t *table[K, R]) Insert(ctx context.Context, rec R) error {
	if _, err := t.batch.tx.Exec(ctx, t.codec.insertSQL, t.codec.values(rec)...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %v", persistence.ErrDuplicateKey, rec.Key())
		}
		return err
	}
	return t.record(ctx, rec, domain.OutcomeInserted)
}

func (t *table[K, R]) Update(ctx context.Context, rec R) error {
	tag, err := t.batch.tx.Exec(ctx, t.codec.updateSQL, t.codec.values(rec)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %v", persistence.ErrNotFound, rec.Key())
	}
	return t.record(ctx, rec, domain.OutcomeUpdated)
}

func (t *table[K, R]) record(ctx context.Context, rec R, outcome domain.Outcome) error {
	if !t.batch.store.outbox {
		return nil
	}
	payload := t.codec.event(rec, outcome, t.batch.store.now())
	return insertOutbox(ctx, t.batch.tx, t.codec.aggregate, t.codec.aggregateID(rec.Key()), t.codec.eventType, payload)
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	meta, ok := events.Lookup(eventType)
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		aggregateID,
		body,
	)
	return err
}
