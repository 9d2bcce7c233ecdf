package live

import "time"

// Backoff default bounds.
const (
	DefaultBackoffBase = 1 * time.Second
	DefaultBackoffMax  = 30 * time.Second
)

// Backoff computes the delay before a reconnect attempt: exponential
// doubling from Base, capped at Max. No jitter; every client keeps an
// independent attempt counter, so synchronized retries are not a concern.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// NewBackoff returns a policy with the given bounds, falling back to the
// defaults for non-positive values.
func NewBackoff(base, max time.Duration) Backoff {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	return Backoff{Base: base, Max: max}
}

// Delay returns the wait before the given attempt. Attempt 0 waits Base;
// each further attempt doubles until Max. Negative attempts clamp to 0.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := b.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= b.Max || d <= 0 {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}
