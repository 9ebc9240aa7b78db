package domain

import (
	"context"
	"fmt"
)

// Outcome reports which branch a reconcile decision took.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
)

// Reconcile upserts rec under its natural key: a row found by key is overwritten field by field,
// otherwise rec is inserted. Callers always pass a complete record, so nothing from the old row survives.
func Reconcile[K comparable, R Keyed[K]](ctx context.Context, table Table[K, R], key K, rec R) (Outcome, error) {
	if rec.Key() != key {
		return "", fmt.Errorf("%w: %v != %v", ErrKeyMismatch, rec.Key(), key)
	}

	existing, err := table.Find(ctx, key)
	if err != nil {
		return "", fmt.Errorf("find %v: %w", key, err)
	}
	if existing != nil {
		if err := table.Update(ctx, rec); err != nil {
			return "", fmt.Errorf("update %v: %w", key, err)
		}
		return OutcomeUpdated, nil
	}

	if err := table.Insert(ctx, rec); err != nil {
		return "", fmt.Errorf("insert %v: %w", key, err)
	}
	return OutcomeInserted, nil
}
