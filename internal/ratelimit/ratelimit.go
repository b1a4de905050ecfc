// Package ratelimit gates aggregation attempts behind a minimum
// interval. This is a debounce, not a token bucket: no burst allowance
// and no queueing.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultMinInterval matches the upstream translation APIs' tolerance
// for rapid-fire selection events.
const DefaultMinInterval = 500 * time.Millisecond

// MinInterval rejects attempts arriving sooner than the configured
// interval after the last accepted one. Safe for concurrent use.
type MinInterval struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewMinInterval(interval time.Duration) *MinInterval {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return &MinInterval{interval: interval}
}

// TryAcquire reports whether an attempt at now may proceed. A rejected
// attempt does not advance the window.
func (l *MinInterval) TryAcquire(now time.Time) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() && now.Sub(l.last) < l.interval {
		return false
	}
	l.last = now
	return true
}
