package btc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls how many times a transient fetch failure is retried
// and how long to wait between attempts. The wait doubles per attempt (or
// whatever BackoffFactor says) up to MaxBackoff.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool
}

// DefaultRetryPolicy is what the calendar clients ship with: three retries
// over roughly seven seconds, jittered.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

// RetryableError marks a failure as transient. RetryAfter, when set,
// overrides the policy's computed backoff for the next attempt.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

// NewRetryableError marks an error as transient.
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%v (retry after %v)", e.Err, e.RetryAfter)
	}
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err carries a RetryableError anywhere in its
// chain. Anything else is treated as permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// Retry runs fn until it succeeds, fails permanently, or the policy's
// attempts run out. The backoff sleep is interruptible by ctx.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == policy.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(backoffFor(policy, attempt, err)):
		}
	}

	return fmt.Errorf("max retries exceeded (%d): %w", policy.MaxRetries, lastErr)
}

// backoffFor picks the wait before the next attempt: the error's RetryAfter
// hint when present, otherwise the policy's exponential schedule.
func backoffFor(policy RetryPolicy, attempt int, err error) time.Duration {
	var retryErr *RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter > 0 {
		return retryErr.RetryAfter
	}
	return calculateBackoff(policy, attempt)
}

func calculateBackoff(policy RetryPolicy, attempt int) time.Duration {
	backoff := float64(policy.InitialBackoff) * math.Pow(policy.BackoffFactor, float64(attempt))
	if backoff > float64(policy.MaxBackoff) {
		backoff = float64(policy.MaxBackoff)
	}

	duration := time.Duration(backoff)

	// Jitter spreads retries so repeated runs don't hammer the source in
	// lockstep.
	if policy.Jitter {
		duration += time.Duration(float64(duration) * 0.1 * (2*rand.Float64() - 1))
	}

	return duration
}
