package instrument

import (
	"context"
	"time"
)

// RetryPolicy bounds every open and measurement loop of a driver.
// There is no backoff and no jitter: the same Delay separates all attempts.
type RetryPolicy struct {
	// Attempts is the maximum number of tries; values below 1 mean 1.
	Attempts int
	// Delay is slept between consecutive attempts.
	Delay time.Duration
}

// attempts returns the effective bound.
func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}

	return p.Attempts
}

// wait blocks for the policy delay or until ctx is done.
func (p RetryPolicy) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
