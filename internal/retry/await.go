// Package retry provides a bounded poll-until-ready primitive for unreliable remote interactions.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned when the condition was not met before the timeout elapsed.
var ErrTimeout = errors.New("condition not met before timeout")

var errNotReady = errors.New("not ready")

// Condition is polled until it reports done. A non-nil error stops polling immediately.
type Condition[T any] func(ctx context.Context) (T, bool, error)

// Await polls fn every poll interval until it reports done, fails, or timeout elapses.
// Cancellation of ctx itself is reported as ctx.Err(), not ErrTimeout.
func Await[T any](ctx context.Context, fn Condition[T], timeout, poll time.Duration) (T, error) {
	awaitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	policy := backoff.WithContext(backoff.NewConstantBackOff(poll), awaitCtx)
	value, err := backoff.RetryWithData(func() (T, error) {
		v, done, err := fn(awaitCtx)
		if err != nil {
			return v, backoff.Permanent(err)
		}
		if !done {
			return v, errNotReady
		}
		return v, nil
	}, policy)
	if err == nil {
		return value, nil
	}

	if ctx.Err() != nil {
		return value, ctx.Err()
	}
	if errors.Is(err, errNotReady) || errors.Is(awaitCtx.Err(), context.DeadlineExceeded) {
		return value, ErrTimeout
	}
	return value, err
}

// Attempts runs fn up to n times, waiting delay*(attempt) between tries, and returns the last error.
func Attempts(ctx context.Context, n int, delay time.Duration, fn func(ctx context.Context, attempt int) error) error {
	if n <= 0 {
		n = 1
	}
	attempt := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: delay, attempt: &attempt}, uint64(n-1)), ctx)
	return backoff.Retry(func() error {
		attempt++
		return fn(ctx, attempt)
	}, policy)
}

type linearBackOff struct {
	step    time.Duration
	attempt *int
}

func (b *linearBackOff) NextBackOff() time.Duration { return b.step * time.Duration(*b.attempt) }

func (b *linearBackOff) Reset() {}
