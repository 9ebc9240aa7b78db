// Package memory provides an in-process Store used for dry runs and tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/persistence"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction already finished")

// Fault lets tests fail a specific store operation. op is one of find, insert, update or commit;
// key is the natural key of the record (nil for commit).
type Fault func(op string, key any) error

// Store keeps every table in maps guarded by a mutex. A transaction works on a private copy that
// replaces the committed state on Commit.
type Store struct {
	mu         sync.RWMutex
	dailyStats map[time.Time]domain.DailyStat
	activities map[int64]domain.Activity
	weighIns   map[int64]domain.WeighIn
	fault      Fault
}

// Option configures the Store.
type Option func(*Store)

// WithFault installs a fault hook.
func WithFault(f Fault) Option {
	return func(s *Store) { s.fault = f }
}

// New constructs an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		dailyStats: make(map[time.Time]domain.DailyStat),
		activities: make(map[int64]domain.Activity),
		weighIns:   make(map[int64]domain.WeighIn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin snapshots the committed state into a new transaction.
func (s *Store) Begin(context.Context) (domain.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &tx{
		store:      s,
		dailyStats: &table[time.Time, domain.DailyStat]{rows: cloneMap(s.dailyStats), fault: s.fault},
		activities: &table[int64, domain.Activity]{rows: cloneMap(s.activities), fault: s.fault},
		weighIns:   &table[int64, domain.WeighIn]{rows: cloneMap(s.weighIns), fault: s.fault},
	}, nil
}

// DailyStats returns stored rows ordered by date.
func (s *Store) DailyStats(_ context.Context, from, to time.Time) ([]domain.DailyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DailyStat, 0, len(s.dailyStats))
	for date, stat := range s.dailyStats {
		if inRange(date, from, to) {
			out = append(out, stat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Activities returns one page of stored activities.
func (s *Store) Activities(_ context.Context, filter domain.ActivityFilter) ([]domain.Activity, *domain.Cursor, error) {
	s.mu.RLock()
	all := make([]domain.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		all = append(all, a)
	}
	s.mu.RUnlock()

	page, next := persistence.Page(all, filter)
	return page, next, nil
}

// WeighIns returns stored weigh-ins ordered by timestamp.
func (s *Store) WeighIns(_ context.Context, from, to time.Time) ([]domain.WeighIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WeighIn, 0, len(s.weighIns))
	for _, w := range s.weighIns {
		if inRange(w.CalendarDate, from, to) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].WeighInID < out[j].WeighInID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func inRange(date, from, to time.Time) bool {
	date = domain.DateOf(date)
	if !from.IsZero() && date.Before(domain.DateOf(from)) {
		return false
	}
	if !to.IsZero() && date.After(domain.DateOf(to)) {
		return false
	}
	return true
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type tx struct {
	store      *Store
	dailyStats *table[time.Time, domain.DailyStat]
	activities *table[int64, domain.Activity]
	weighIns   *table[int64, domain.WeighIn]
	done       bool
}

func (t *tx) DailyStats() domain.Table[time.Time, domain.DailyStat] { return t.dailyStats }
func (t *tx) Activities() domain.Table[int64, domain.Activity] { return t.activities }
func (t *tx) WeighIns() domain.Table[int64, domain.WeighIn] { return t.weighIns }

func (t *tx) Commit(context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.store.fault != nil {
		if err := t.store.fault("commit", nil); err != nil {
			return err
		}
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.dailyStats = t.dailyStats.rows
	t.store.activities = t.activities.rows
	t.store.weighIns = t.weighIns.rows
	return nil
}

func (t *tx) Rollback(context.Context) error {
	t.done = true
	return nil
}

type table[K comparable, R domain.Keyed[K]] struct {
	rows  map[K]R
	fault Fault
}

func (t *table[K, R]) check(op string, key K) error {
	if t.fault == nil {
		return nil
	}
	return t.fault(op, key)
}

func (t *table[K, R]) Find(_ context.Context, key K) (*R, error) {
	if err := t.check("find", key); err != nil {
		return nil, err
	}
	rec, ok := t.rows[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (t *table[K, R]) Insert(_ context.Context, rec R) error {
	if err := t.check("insert", rec.Key()); err != nil {
		return err
	}
	if _, ok := t.rows[rec.Key()]; ok {
		return persistence.ErrDuplicateKey
	}
	t.rows[rec.Key()] = rec
	return nil
}

func (t *table[K, R]) Update(_ context.Context, rec R) error {
	if err := t.check("update", rec.Key()); err != nil {
		return err
	}
	if _, ok := t.rows[rec.Key()]; !ok {
		return persistence.ErrNotFound
	}
	t.rows[rec.Key()] = rec
	return nil
}
