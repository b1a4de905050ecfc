package ratelimit

import (
	"testing"
	"time"
)

func TestTryAcquire_RejectsWithinInterval(t *testing.T) {
	t.Parallel()

	limiter := NewMinInterval(500 * time.Millisecond)
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	if !limiter.TryAcquire(base) {
		t.Fatal("first attempt must pass")
	}
	if limiter.TryAcquire(base.Add(499 * time.Millisecond)) {
		t.Fatal("attempt inside the interval must be rejected")
	}
	if !limiter.TryAcquire(base.Add(500 * time.Millisecond)) {
		t.Fatal("attempt at the interval boundary must pass")
	}
}

func TestTryAcquire_RejectionDoesNotAdvanceWindow(t *testing.T) {
	t.Parallel()

	limiter := NewMinInterval(500 * time.Millisecond)
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	if !limiter.TryAcquire(base) {
		t.Fatal("first attempt must pass")
	}
	// Rejected attempts keep the original window anchored at base.
	if limiter.TryAcquire(base.Add(300 * time.Millisecond)) {
		t.Fatal("attempt at +300ms must be rejected")
	}
	if !limiter.TryAcquire(base.Add(600 * time.Millisecond)) {
		t.Fatal("attempt at +600ms must pass even after a rejection at +300ms")
	}
}

func TestNewMinInterval_DefaultsNonPositive(t *testing.T) {
	t.Parallel()

	limiter := NewMinInterval(0)
	if limiter.interval != DefaultMinInterval {
		t.Fatalf("unexpected default interval: %v", limiter.interval)
	}
}
