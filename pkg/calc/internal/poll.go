package internal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDeadline is returned by Until when the condition never held in time.
var ErrDeadline = errors.New("condition not met before deadline")

// Condition reports whether a waited-for state has been reached.
// A non-nil error aborts the wait immediately.
type Condition func(ctx context.Context) (bool, error)

// Until evaluates cond every interval until it returns true, cond fails,
// ctx is done, or timeout elapses on clock. The condition is always
// evaluated at least once.
func Until(ctx context.Context, clock Clock, timeout, interval time.Duration, cond Condition) error {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	deadline := clock.Now().Add(timeout)
	for {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if !clock.Now().Before(deadline) {
			return fmt.Errorf("%w (waited %v)", ErrDeadline, timeout)
		}

		clock.Sleep(interval)
	}
}
