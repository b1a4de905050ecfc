// Package globaltime is a process-wide clock that tests can pin to a
// fixed instant. The rate limiter, history timestamps, review
// scheduling, and request signing all read time through it.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

func UTC() time.Time {
	return Now().UTC()
}

// Unix returns the current time as Unix seconds.
func Unix() int64 {
	return Now().Unix()
}

// UnixMilli returns the current time as Unix milliseconds.
func UnixMilli() int64 {
	return Now().UnixMilli()
}

func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
