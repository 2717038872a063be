package engine

import (
	"time"
)

// DefaultCountUpDuration is the interpolation window of a count-up animation
const DefaultCountUpDuration = 2000 * time.Millisecond

// CountUpState is the phase of a count-up animation
type CountUpState int

const (
	CountUpIdle CountUpState = iota
	CountUpTriggered
	CountUpAnimating
	CountUpSettled
)

func (s CountUpState) String() string {
	switch s {
	case CountUpIdle:
		return "idle"
	case CountUpTriggered:
		return "triggered"
	case CountUpAnimating:
		return "animating"
	case CountUpSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// CountUp interpolates a set of values from zero to their targets once its
// visibility latch has been set. The latch never resets; only Teardown stops
// an animation in progress.
type CountUp struct {
	targets  []float64
	current  []float64
	duration time.Duration
	state    CountUpState
	start    time.Time
	torn     bool
}

// NewCountUp creates an idle animation towards targets
func NewCountUp(duration time.Duration, targets ...float64) *CountUp {
	t := make([]float64, len(targets))
	copy(t, targets)
	return &CountUp{
		targets:  t,
		current:  make([]float64, len(targets)),
		duration: duration,
	}
}

// State returns the current phase
func (c *CountUp) State() CountUpState {
	return c.state
}

// Observe feeds one visibility observation. The first visible observation
// sets the latch and starts the clock; later ones are ignored.
// It reports whether this call triggered the animation.
func (c *CountUp) Observe(visible bool, now time.Time) bool {
	if c.torn || c.state != CountUpIdle || !visible {
		return false
	}
	c.state = CountUpTriggered
	c.start = now
	return true
}

// Sample advances the animation to now and returns the interpolated values
func (c *CountUp) Sample(now time.Time) []float64 {
	if c.torn || c.state == CountUpIdle || c.state == CountUpSettled {
		return c.snapshot()
	}

	c.state = CountUpAnimating

	progress := 1.0
	if c.duration > 0 {
		progress = float64(now.Sub(c.start)) / float64(c.duration)
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
	}

	for i, end := range c.targets {
		c.current[i] = progress * end
	}
	if progress >= 1 {
		c.state = CountUpSettled
	}

	return c.snapshot()
}

// Teardown cancels the animation, freezing the values where they are
func (c *CountUp) Teardown() {
	c.torn = true
}

// Done reports whether sampling can stop
func (c *CountUp) Done() bool {
	return c.torn || c.state == CountUpSettled
}

func (c *CountUp) snapshot() []float64 {
	out := make([]float64, len(c.current))
	copy(out, c.current)
	return out
}
