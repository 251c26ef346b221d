package pdp

import (
	"context"
	"math"
	"time"

	"github.com/patrickfnielsen/pdpclient/internal/util"
)

const defaultBackoffMultiplier = 2.0

// RetryPolicy decides how many attempts a request gets and how long to wait
// between them. It knows nothing about HTTP; Retryable picks the errors
// worth another attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration // wait before the second attempt
	MaxBackoff  time.Duration // upper bound for any single wait
	Multiplier  float64
	Jitter      float64
	Retryable   func(error) bool

	// OnRetry, if set, is called before waiting for the next attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryPolicy derives the policy from the configured attempts and
// backoff: waits start at backoff and double, capped at
// backoff*maxAttempts + 1ms. Only transport errors are retried.
func NewRetryPolicy(maxAttempts int, backoff time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		MaxBackoff:  maxBackoff(maxAttempts, backoff),
		Multiplier:  defaultBackoffMultiplier,
		Retryable:   IsTransportError,
	}
}

// maxBackoff is backoff*maxAttempts + 1ms, saturating at the largest
// time.Duration.
func maxBackoff(maxAttempts int, backoff time.Duration) time.Duration {
	if backoff <= 0 {
		return time.Millisecond
	}
	if backoff > (math.MaxInt64-time.Millisecond)/time.Duration(maxAttempts) {
		return math.MaxInt64
	}
	return backoff*time.Duration(maxAttempts) + time.Millisecond
}

// Delay returns the wait before retry number n (n=1 precedes the second
// attempt).
func (p RetryPolicy) Delay(n int) time.Duration {
	return util.Backoff(p.Backoff, p.MaxBackoff, p.Jitter, p.Multiplier, n)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsTransportError(err)
	}
	return p.Retryable(err)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. fn receives the 1-based attempt number. When every
// attempt failed the last error is returned inside a *RetryExhaustedError.
// Waiting between attempts stops early when ctx is done.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error

	maxAttempts := p.attempts()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.Delay(attempt - 1)
			if p.OnRetry != nil {
				p.OnRetry(attempt, delay, lastErr)
			}
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !p.retryable(err) {
			return err
		}

		lastErr = err
	}

	return &RetryExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
