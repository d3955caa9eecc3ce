// Package retry implements a bounded exponential-backoff retry policy
// for calls to external model services and index queries.
package retry

import (
	"context"
	"time"
)

// Policy configures retry behaviour. The zero value retries nothing;
// use Default for sensible API-call defaults.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the initial delay between attempts.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	Multiplier float64

	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

// Default returns the standard policy for model-service calls.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Multiplier:  2.0,
	}
}

// Do executes fn with the policy's backoff schedule. Retry stops on
// success, on a non-retryable error, on context cancellation, or when
// the attempt budget is exhausted (returning the last error).
func Do[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.BaseDelay

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * p.Multiplier)
				if p.MaxDelay > 0 && backoff > p.MaxDelay {
					backoff = p.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
