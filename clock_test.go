package cubeportal

import (
	"testing"
	"time"
)

func TestFixedClock(t *testing.T) {
	c := &FixedClock{Step: 0.25}
	if c.Delta() != 0 || c.Elapsed() != 0 {
		t.Errorf("before first tick: delta=%v elapsed=%v, want 0", c.Delta(), c.Elapsed())
	}
	for range 4 {
		c.Tick()
	}
	assertNear(t, "Delta", c.Delta(), 0.25)
	assertNear(t, "Elapsed", c.Elapsed(), 1)
}

func TestWallClock(t *testing.T) {
	now := time.Unix(100, 0)
	c := NewWallClock()
	c.now = func() time.Time { return now }

	c.Tick()
	if c.Delta() != 0 {
		t.Errorf("first tick delta = %v, want 0", c.Delta())
	}
	now = now.Add(16 * time.Millisecond)
	c.Tick()
	assertNear(t, "Delta", c.Delta(), 0.016)
	assertNear(t, "Elapsed", c.Elapsed(), 0.016)
}

func TestWallClockCapsDelta(t *testing.T) {
	now := time.Unix(100, 0)
	c := NewWallClock()
	c.now = func() time.Time { return now }
	c.Tick()
	now = now.Add(3 * time.Second)
	c.Tick()
	assertNear(t, "Delta", c.Delta(), c.MaxDelta)
	assertNear(t, "Elapsed", c.Elapsed(), 3)
}

func TestWallClockElapsedBeforeTick(t *testing.T) {
	if e := NewWallClock().Elapsed(); e != 0 {
		t.Errorf("Elapsed = %v before first tick, want 0", e)
	}
}
