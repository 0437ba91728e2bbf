package cadence

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Clock is the sleep capability used between emissions.
type Clock interface {
	Sleep(d time.Duration)
}

// SystemClock sleeps with time.Sleep. Time spent emitting is added on top
// of each period, so a long run drifts behind wall-clock time.
type SystemClock struct{}

// Sleep blocks for d.
func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// PacedClock holds a fixed cadence measured from its first Sleep, absorbing
// the time spent emitting between sleeps. It must not be shared between
// concurrent runs.
type PacedClock struct {
	limiter *rate.Limiter
	period  time.Duration
}

// NewPacedClock returns a clock for the given period.
func NewPacedClock(period time.Duration) *PacedClock {
	return &PacedClock{period: period}
}

// Sleep blocks until the next tick of the cadence. A period other than the
// one the clock was built for restarts the cadence at that period.
func (c *PacedClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if c.limiter == nil || d != c.period {
		c.period = d
		// Burst of one; the initial token stands for the emission that
		// just happened.
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
		c.limiter.Allow()
	}
	if err := c.limiter.Wait(context.Background()); err != nil {
		time.Sleep(d)
	}
}
