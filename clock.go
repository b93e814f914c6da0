package cubeportal

import "time"

// Clock supplies frame timing to the render loop.
type Clock interface {
	// Tick advances the clock by one frame.
	Tick()
	// Delta returns seconds elapsed between the last two ticks.
	Delta() float64
	// Elapsed returns seconds elapsed since the first tick.
	Elapsed() float64
}

// WallClock measures real time between ticks. Deltas are capped so a stalled
// window does not fling animations forward.
type WallClock struct {
	MaxDelta float64

	start, last time.Time
	delta       float64
	now         func() time.Time
}

// NewWallClock returns a wall clock with a 0.1s delta cap.
func NewWallClock() *WallClock {
	return &WallClock{MaxDelta: 0.1, now: time.Now}
}

func (c *WallClock) Tick() {
	t := c.now()
	if c.start.IsZero() {
		c.start, c.last = t, t
		c.delta = 0
		return
	}
	c.delta = t.Sub(c.last).Seconds()
	if c.MaxDelta > 0 && c.delta > c.MaxDelta {
		c.delta = c.MaxDelta
	}
	c.last = t
}

func (c *WallClock) Delta() float64 { return c.delta }

func (c *WallClock) Elapsed() float64 {
	if c.start.IsZero() {
		return 0
	}
	return c.last.Sub(c.start).Seconds()
}

// FixedClock advances by Step seconds per tick. Deterministic, for tests and
// scripted captures.
type FixedClock struct {
	Step float64

	ticks   int
	elapsed float64
}

func (c *FixedClock) Tick() {
	c.ticks++
	c.elapsed += c.Step
}

func (c *FixedClock) Delta() float64 {
	if c.ticks == 0 {
		return 0
	}
	return c.Step
}

func (c *FixedClock) Elapsed() float64 { return c.elapsed }
