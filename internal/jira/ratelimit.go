package jira

import (
	"context"
	"sync"
	"time"

	"github.com/lazyjira/lazyjira/internal/logging/events"
)

// RateLimiter is a token bucket with lazy refill: tokens are credited
// on access from elapsed wall time instead of by a background ticker.
// The bucket starts full, so an initial burst up to maxTokens is never
// throttled.
//
// Known limitation: waiters are not served in FIFO order. Under heavy
// contention a newly arrived caller can win a token an older waiter was
// sleeping for. Acceptable for a single-user client; revisit before
// sharing a limiter across clients.
type RateLimiter struct {
	mu              sync.Mutex
	tokens          int
	maxTokens       int
	refillInterval  time.Duration
	tokensPerRefill int
	lastRefill      time.Time
}

// NewRateLimiter returns a full bucket holding maxTokens, refilling
// tokensPerRefill every refillInterval.
func NewRateLimiter(maxTokens int, refillInterval time.Duration, tokensPerRefill int) *RateLimiter {
	return &RateLimiter{
		tokens:          maxTokens,
		maxTokens:       maxTokens,
		refillInterval:  refillInterval,
		tokensPerRefill: tokensPerRefill,
		lastRefill:      time.Now(),
	}
}

// JiraCloudLimiter returns the default policy for Jira Cloud: 100
// requests, fully replenished every minute.
func JiraCloudLimiter() *RateLimiter {
	return NewRateLimiter(100, time.Minute, 100)
}

// refillLocked credits whole elapsed intervals and advances the refill
// timestamp by exactly the intervals consumed, so partial elapsed time
// keeps counting toward the next refill. Caller holds mu.
func (l *RateLimiter) refillLocked(now time.Time) {
	elapsed := now.Sub(l.lastRefill)
	if elapsed < l.refillInterval {
		return
	}
	intervals := int(elapsed / l.refillInterval)
	l.tokens += intervals * l.tokensPerRefill
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = l.lastRefill.Add(time.Duration(intervals) * l.refillInterval)
}

// Acquire blocks until a token is available or ctx is done. The lock is
// released before sleeping, and the whole check reruns after each
// sleep, so a sleeping caller can lose its expected token to a
// concurrent one.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.refillLocked(now)
		if l.tokens > 0 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := l.refillInterval - now.Sub(l.lastRefill)
		l.mu.Unlock()

		events.API.RateLimited(wait.Milliseconds())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire consumes a token if one is available; it never blocks.
func (l *RateLimiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked(time.Now())
	if l.tokens > 0 {
		l.tokens--
		return true
	}
	return false
}
