// Package globaltime is the process clock. Tests freeze or advance it
// instead of sleeping.
package globaltime

import (
	"sync"
	"time"
)

type clock struct {
	mu     sync.RWMutex
	frozen bool
	at     time.Time
}

var current clock

func Now() time.Time {
	current.mu.RLock()
	defer current.mu.RUnlock()
	if current.frozen {
		return current.at
	}
	return time.Now()
}

func UTC() time.Time {
	return Now().UTC()
}

// Since reports the time elapsed since t according to the current clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// SetMockTime freezes the clock at t until ResetTime is called.
func SetMockTime(t time.Time) {
	current.mu.Lock()
	defer current.mu.Unlock()
	current.frozen = true
	current.at = t
}

// Advance moves a frozen clock forward. It is a no-op on the real clock.
func Advance(d time.Duration) {
	current.mu.Lock()
	defer current.mu.Unlock()
	if current.frozen {
		current.at = current.at.Add(d)
	}
}

func ResetTime() {
	current.mu.Lock()
	defer current.mu.Unlock()
	current.frozen = false
	current.at = time.Time{}
}
