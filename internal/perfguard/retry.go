package perfguard

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy describes exponential backoff for transient failures,
// mirroring the tuning knobs of original_source's RetryPolicy
// (initial delay, multiplier, ceiling, attempt cap).
type RetryPolicy struct {
	MaxRetries       uint32
	InitialBackoffMs int64
	Multiplier       float64
	MaxBackoffMs     int64
}

// DefaultRetryPolicy matches the original's default: 2 retries, 500ms
// initial backoff, 2x multiplier, 5s ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, InitialBackoffMs: 500, Multiplier: 2.0, MaxBackoffMs: 5000}
}

// ShouldRetry reports whether another attempt is permitted given the
// 0-indexed attempt count already made.
func (p RetryPolicy) ShouldRetry(attempt uint32) bool {
	return attempt < p.MaxRetries
}

// BackoffMs computes the delay before the given 0-indexed attempt; the
// first attempt (0) has no delay.
func (p RetryPolicy) BackoffMs(attempt uint32) int64 {
	if attempt == 0 {
		return 0
	}
	delay := float64(p.InitialBackoffMs)
	for i := uint32(1); i < attempt; i++ {
		delay *= p.Multiplier
	}
	if ms := int64(delay); ms < p.MaxBackoffMs || p.MaxBackoffMs == 0 {
		return ms
	}
	return p.MaxBackoffMs
}

// BackoffDuration is BackoffMs as a time.Duration.
func (p RetryPolicy) BackoffDuration(attempt uint32) time.Duration {
	return time.Duration(p.BackoffMs(attempt)) * time.Millisecond
}

// NewExponentialBackOff builds a github.com/cenkalti/backoff/v4
// ExponentialBackOff configured from this policy, for callers that want
// to drive retries via backoff.Retry / backoff.WithMaxRetries rather
// than the hand-rolled BackoffMs table above.
func (p RetryPolicy) NewExponentialBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(p.InitialBackoffMs) * time.Millisecond
	b.Multiplier = p.Multiplier
	b.MaxInterval = time.Duration(p.MaxBackoffMs) * time.Millisecond
	b.MaxElapsedTime = 0
	return b
}

// WithRetry runs op, retrying per policy using backoff/v4's retry
// driver, bounded to MaxRetries attempts beyond the first.
func (p RetryPolicy) WithRetry(op func() error) error {
	attempts := uint64(p.MaxRetries) + 1
	return backoff.Retry(op, backoff.WithMaxRetries(p.NewExponentialBackOff(), attempts-1))
}
