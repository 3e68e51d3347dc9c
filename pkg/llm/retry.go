package llm

import (
	"context"
	"time"
)

// Default retry settings for rate-limited provider calls.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// RetryPolicy retries rate-limited provider calls with a fixed delay.
// Any other error, and the last rate-limit error once retries run out, is
// returned unchanged.
type RetryPolicy struct {
	// OnRetry, if set, is called before each wait with the 1-based retry number.
	OnRetry func(attempt int, err error)

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, Delay: DefaultRetryDelay}
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; ; attempt++ {
		reply, err := fn(ctx)
		if err == nil {
			return reply, nil
		}
		if !IsRetryable(err) || attempt >= p.MaxRetries {
			return "", err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}
		if serr := sleep(ctx, p.Delay); serr != nil {
			return "", serr
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
