package domain

import (
	"context"
	"time"
)

// Keyed is a record carrying its own natural key.
type Keyed[K comparable] interface {
	Key() K
}

// Table is the per-entity slice of a transaction used by Reconcile.
type Table[K comparable, R Keyed[K]] interface {
	Find(ctx context.Context, key K) (*R, error)
	Insert(ctx context.Context, rec R) error
	Update(ctx context.Context, rec R) error
}

// Tx groups every reconcile decision of a batch into one atomic unit.
type Tx interface {
	DailyStats() Table[time.Time, DailyStat]
	Activities() Table[int64, Activity]
	WeighIns() Table[int64, WeighIn]
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Cursor models the activity pagination token.
type Cursor struct {
	StartTimeLocal time.Time
	ActivityID     int64
}

// ActivityFilter narrows activity reads. Zero values mean unbounded.
type ActivityFilter struct {
	TypeIDs []int
	From    time.Time
	To      time.Time
	After   *Cursor
	Limit   int
}

// Reader exposes read paths over persisted history.
type Reader interface {
	// DailyStats returns rows ordered by date, bounded inclusively by from/to when non-zero.
	DailyStats(ctx context.Context, from, to time.Time) ([]DailyStat, error)
	// Activities returns rows ordered by start time descending, then activity id descending.
	Activities(ctx context.Context, filter ActivityFilter) ([]Activity, *Cursor, error)
	WeighIns(ctx context.Context, from, to time.Time) ([]WeighIn, error)
}

// Store is the persisted source of truth.
type Store interface {
	Reader
	Begin(ctx context.Context) (Tx, error)
}
