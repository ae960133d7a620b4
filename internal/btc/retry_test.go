package btc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(), func() error {
		attempts++
		if attempts < 3 {
			return NewRetryableError(fmt.Errorf("transient"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad request")
	attempts := 0
	err := Retry(context.Background(), fastRetry(), func() error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("got %v, want the permanent error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryExhausted(t *testing.T) {
	policy := fastRetry()
	attempts := 0
	err := Retry(context.Background(), policy, func() error {
		attempts++
		return NewRetryableError(fmt.Errorf("always failing"))
	})

	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != policy.MaxRetries+1 {
		t.Errorf("attempts = %d, want %d", attempts, policy.MaxRetries+1)
	}
}

func TestRetryCancellation(t *testing.T) {
	policy := fastRetry()
	policy.InitialBackoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, policy, func() error {
			return NewRetryableError(fmt.Errorf("transient"))
		})
	}()

	cancel()

	select {
	case err := <-done:
		if err == nil || !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want a cancellation error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not react to cancellation")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
	if !IsRetryable(NewRetryableError(errors.New("transient"))) {
		t.Error("wrapped errors are retryable")
	}
	if !IsRetryable(fmt.Errorf("outer: %w", NewRetryableError(errors.New("inner")))) {
		t.Error("retryability should survive wrapping")
	}
}

func TestBackoffHonorsRetryAfterHint(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff: time.Second,
		MaxBackoff:     4 * time.Second,
		BackoffFactor:  2.0,
	}

	hinted := &RetryableError{Err: errors.New("throttled"), RetryAfter: 250 * time.Millisecond}
	if got := backoffFor(policy, 0, hinted); got != 250*time.Millisecond {
		t.Errorf("hinted backoff = %v, want the 250ms hint", got)
	}

	plain := NewRetryableError(errors.New("transient"))
	if got := backoffFor(policy, 1, plain); got != 2*time.Second {
		t.Errorf("unhinted backoff = %v, want the schedule's 2s", got)
	}
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff: time.Second,
		MaxBackoff:     4 * time.Second,
		BackoffFactor:  2.0,
	}

	if got := calculateBackoff(policy, 0); got != time.Second {
		t.Errorf("attempt 0 = %v, want 1s", got)
	}
	if got := calculateBackoff(policy, 1); got != 2*time.Second {
		t.Errorf("attempt 1 = %v, want 2s", got)
	}
	if got := calculateBackoff(policy, 5); got != 4*time.Second {
		t.Errorf("attempt 5 = %v, want the 4s cap", got)
	}
}
