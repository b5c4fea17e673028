// Package clock provides the monotonic time source shared by the analysis
// and metronome drivers. Both read the same clock so detection timestamps
// and beat times stay comparable.
package clock

import (
	"sync"
	"time"
)

// Clock reports monotonic time in seconds since an arbitrary origin.
// Implementations never go backwards.
type Clock interface {
	Now() float64
}

// SystemClock measures monotonic seconds since construction using the
// runtime's monotonic clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a system clock anchored at the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns seconds elapsed since the clock was created.
func (c *SystemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock is a hand-driven clock for deterministic tests. It only moves
// when Advance or Set is called.
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

// NewManualClock creates a manual clock starting at zero seconds.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Now returns the current manual time in seconds.
func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative durations are ignored so
// the clock stays monotonic.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.mu.Lock()
	c.now += d.Seconds()
	c.mu.Unlock()
}

// Set jumps the clock to an absolute time in seconds. Attempts to move
// backwards are ignored.
func (c *ManualClock) Set(seconds float64) {
	c.mu.Lock()
	if seconds > c.now {
		c.now = seconds
	}
	c.mu.Unlock()
}
