// Package retry runs a fallible UI attempt a bounded number of times.
//
// It is intentionally small: no backoff policy, no jitter, no error
// classification. Pacing between attempts belongs to the caller's OnRetry hook.
package retry

import (
	"context"
	"fmt"
)

// Attempt is one try of the guarded operation.
type Attempt[T any] func(ctx context.Context) (T, error)

// OnRetry is invoked between a failed attempt and the next one. retry is the
// 1-based number of the retry about to run, so the first retry sees 1. Its
// error is discarded and a panic inside it is recovered; neither stops the loop.
type OnRetry func(ctx context.Context, retry int, err error) error

// Do executes attempt up to maxRetries+1 times and returns the first success.
// When every attempt fails the last attempt's error is returned unchanged.
// A negative maxRetries is treated as zero.
//
// If ctx is done before an attempt starts, Do stops early and returns the
// most recent attempt error, or ctx.Err() when no attempt has run.
func Do[T any](ctx context.Context, attempt Attempt[T], maxRetries int, onRetry OnRetry) (T, error) {
	var zero T
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return zero, lastErr
		}

		v, err := attempt(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if i < maxRetries && onRetry != nil {
			_ = safeCall(ctx, onRetry, i+1, err)
		}
	}
	return zero, lastErr
}

// Run is Do for attempts that produce no value.
func Run(ctx context.Context, attempt func(ctx context.Context) error, maxRetries int, onRetry OnRetry) error {
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, attempt(ctx)
	}, maxRetries, onRetry)
	return err
}

// safeCall invokes the hook and converts a panic into an error.
func safeCall(ctx context.Context, hook OnRetry, retry int, cause error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("retry hook panicked: %v", r)
		}
	}()
	return hook(ctx, retry, cause)
}
