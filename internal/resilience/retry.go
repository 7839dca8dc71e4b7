package resilience

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a failed call is reissued and how long to wait
// between attempts. The zero value performs no retries.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// Delay is the pause before every retry.
	Delay time.Duration
}

// Attempts returns the total number of attempts the policy allows.
func (p RetryPolicy) Attempts() int {
	return 1 + max(p.MaxRetries, 0)
}

// ShouldRetry reports whether another attempt is allowed after attempt
// (1-based) has failed.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.Attempts()
}

// Wait sleeps for the policy delay. It returns ctx.Err() early if ctx is
// cancelled first.
func (p RetryPolicy) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
