package lumen

import (
	"time"
)

// FrameClock is the wall clock resource advanced once per frame.
type FrameClock struct {
	Started time.Time
	Now     time.Time
	Delta   time.Duration
	Ticks   uint64
}

// Elapsed is the time since the clock was installed.
func (c *FrameClock) Elapsed() time.Duration { return c.Now.Sub(c.Started) }

// TimeModule replaces the fixed frame time with the measured delta between
// frames. Source defaults to time.Now.
type TimeModule struct {
	Source func() time.Time
}

func (m TimeModule) Install(e *Engine) {
	source := m.Source
	if source == nil {
		source = time.Now
	}
	start := source()
	e.AddResources(&FrameClock{Started: start, Now: start})
	e.UseSystem(func(e *Engine) {
		clock := Resource[FrameClock](e)
		now := source()
		clock.Delta = now.Sub(clock.Now)
		clock.Now = now
		clock.Ticks++
	})
}
