package dom

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrWaitTimeout is returned when a condition did not hold within the timeout.
var ErrWaitTimeout = errors.New("wait timed out")

// Condition is re-evaluated until it reports true.
type Condition func(ctx context.Context) (bool, error)

// Waiter blocks until a condition holds or a timeout elapses.
type Waiter interface {
	WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error
}

// DefaultPollInterval paces PollingWaiter when no interval is configured.
const DefaultPollInterval = 100 * time.Millisecond

// PollingWaiter evaluates a condition at a fixed rate.
type PollingWaiter struct {
	Interval time.Duration
}

// NewPollingWaiter creates a waiter polling every interval.
func NewPollingWaiter(interval time.Duration) *PollingWaiter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingWaiter{Interval: interval}
}

// WaitUntil implements Waiter. It returns nil once cond holds, the parent
// context error if ctx ends first, and ErrWaitTimeout otherwise. Errors from
// cond are treated as "not yet".
func (w *PollingWaiter) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(waitCtx); err != nil {
			break
		}
		ok, err := cond(waitCtx)
		if err == nil && ok {
			return nil
		}
		if waitCtx.Err() != nil {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrWaitTimeout
}
