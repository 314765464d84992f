// Package framegate decides, once per animation tick, whether a render is due.
package framegate

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultFPS is the render rate enforced when the gate is limited.
const DefaultFPS = 30

// Gate accumulates wall-clock time between calls and lets a render through once the
// accumulated time exceeds one frame interval.
type Gate struct {
	mu        sync.Mutex
	clock     clock.Clock
	unlimited bool
	interval  time.Duration

	started bool
	last    time.Time
	elapsed time.Duration
}

// New returns a gate throttled to DefaultFPS, or one that always passes when unlimited is set.
func New(clk clock.Clock, unlimited bool) *Gate {
	return NewWithRate(clk, unlimited, DefaultFPS)
}

// NewWithRate is like New with a custom target rate. Non-positive rates fall back to DefaultFPS.
func NewWithRate(clk clock.Clock, unlimited bool, fps float64) *Gate {
	if clk == nil {
		clk = clock.New()
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Gate{
		clock:     clk,
		unlimited: unlimited,
		interval:  time.Duration(float64(time.Second) / fps),
	}
}

// ShouldRender adds the time since the previous call to the accumulator and reports whether a
// render should happen now. The first call observes no elapsed time.
func (g *Gate) ShouldRender() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if g.started {
		g.elapsed += now.Sub(g.last)
	}
	g.started = true
	g.last = now

	if g.unlimited {
		return true
	}
	if g.elapsed > g.interval {
		g.elapsed = 0
		return true
	}
	return false
}

// Interval is the minimum accumulated time between two limited renders.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Unlimited reports whether every call passes.
func (g *Gate) Unlimited() bool {
	return g.unlimited
}

// Elapsed returns the time accumulated since the last permitted render.
func (g *Gate) Elapsed() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.elapsed
}
