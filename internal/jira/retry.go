package jira

import (
	"context"
	"time"

	"github.com/lazyjira/lazyjira/internal/logging/events"
)

// RetryConfig drives the exponential-backoff retry loop. Immutable per
// client.
type RetryConfig struct {
	MaxRetries int
	Delay      time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig is the standard policy: up to 3 retries starting
// at 100ms, doubling per attempt, capped at 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Delay:      100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}
}

// Non-retryable client statuses. 429 is deliberately absent: it is
// retryable and carries its own penalty delay in the transport.
var nonRetryableStatus = map[int]bool{
	400: true,
	401: true,
	403: true,
	404: true,
	422: true,
}

// Retry invokes op up to cfg.MaxRetries+1 times. op must be a fresh
// call per invocation, not a memoized result. Authentication and
// Validation errors, and API errors with a non-retryable client
// status, short-circuit immediately regardless of remaining budget.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	var zero T
	delay := cfg.Delay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		switch ErrKind(err) {
		case KindAuthentication, KindValidation:
			return zero, err
		case KindAPI:
			if apiErr, ok := err.(*Error); ok && nonRetryableStatus[apiErr.StatusCode] {
				return zero, err
			}
		}

		if attempt == cfg.MaxRetries {
			break
		}

		events.API.Retry(attempt+1, delay.Milliseconds(), err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return zero, lastErr
}

// IsRetryable reports whether err is worth another attempt: transport
// and IO failures, plus API errors for 429 and 5xx responses.
func IsRetryable(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindIO:
		return true
	case KindAPI:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}
