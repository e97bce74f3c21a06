// internal/browser/context_utils.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CombineContext derives a context from ctx1 that is also canceled when ctx2
// is. Values come from ctx1 only. Drivers use it to bind a caller's deadline
// to a session context that carries the connection.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}

// valueOnlyContext keeps the parent's values but drops its deadline and cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                       { return nil }
func (valueOnlyContext) Err() error                                  { return nil }

// Detach returns a context that inherits values from ctx but is not canceled
// when ctx is. Session teardown uses it so cleanup survives an interrupted test.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}

// DefaultPollInterval is how often drivers without native waiting re-check a condition.
const DefaultPollInterval = 100 * time.Millisecond

// Poll calls cond until it reports true, returns an error, or timeout elapses.
// On timeout the returned error wraps context.DeadlineExceeded and names what
// was being waited for.
func Poll(ctx context.Context, timeout, interval time.Duration, what string, cond func(ctx context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(pollCtx)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("timed out after %s waiting for %s: %w", timeout, what, context.DeadlineExceeded)
		case <-ticker.C:
		}
	}
}

// normalizeSpace collapses runs of whitespace and trims the ends.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
