package clock

import (
	"testing"
	"time"
)

func TestSystemClockMonotonic(t *testing.T) {
	c := NewSystemClock()
	a := c.Now()
	time.Sleep(time.Millisecond)
	b := c.Now()
	if b <= a {
		t.Errorf("clock moved backwards: first %f, second %f", a, b)
	}
}

func TestManualClockAdvance(t *testing.T) {
	c := NewManualClock()
	if got := c.Now(); got != 0 {
		t.Errorf("initial time: got %f, want 0", got)
	}

	c.Advance(500 * time.Millisecond)
	if got := c.Now(); got != 0.5 {
		t.Errorf("after advance: got %f, want 0.5", got)
	}

	c.Advance(-time.Second)
	if got := c.Now(); got != 0.5 {
		t.Errorf("negative advance should be ignored: got %f, want 0.5", got)
	}
}

func TestManualClockSet(t *testing.T) {
	c := NewManualClock()
	c.Set(2.0)
	if got := c.Now(); got != 2.0 {
		t.Errorf("after set: got %f, want 2.0", got)
	}

	c.Set(1.0)
	if got := c.Now(); got != 2.0 {
		t.Errorf("backwards set should be ignored: got %f, want 2.0", got)
	}
}
