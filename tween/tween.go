// Package tween interpolates values over time. A Group is advanced once per rendered frame.
package tween

import (
	"math"
	"sync"
	"time"
)

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(k float64) float64

var (
	// Linear keeps progress unchanged.
	Linear Easing = func(k float64) float64 { return k }
	// QuadraticInOut accelerates then decelerates.
	QuadraticInOut Easing = func(k float64) float64 {
		k *= 2
		if k < 1 {
			return 0.5 * k * k
		}
		k--
		return -0.5 * (k*(k-2) - 1)
	}
	// CubicOut decelerates toward the end.
	CubicOut Easing = func(k float64) float64 {
		k--
		return k*k*k + 1
	}
	// SineInOut follows half a cosine wave.
	SineInOut Easing = func(k float64) float64 {
		return 0.5 * (1 - math.Cos(math.Pi*k))
	}
)

// Tween interpolates a single float between two values.
type Tween struct {
	from, to   float64
	duration   time.Duration
	easing     Easing
	repeat     bool
	onUpdate   func(value float64)
	onComplete func()

	started bool
	start   time.Time
}

// New returns a linear tween from `from` to `to` taking `duration`.
func New(from, to float64, duration time.Duration) *Tween {
	return &Tween{from: from, to: to, duration: duration, easing: Linear}
}

// Easing sets the easing function.
func (tw *Tween) Easing(easing Easing) *Tween {
	if easing != nil {
		tw.easing = easing
	}
	return tw
}

// Repeat makes the tween restart from the beginning forever instead of completing.
func (tw *Tween) Repeat(forever bool) *Tween {
	tw.repeat = forever
	return tw
}

// OnUpdate sets the callback receiving each interpolated value.
func (tw *Tween) OnUpdate(fn func(value float64)) *Tween {
	tw.onUpdate = fn
	return tw
}

// OnComplete sets the callback run once the tween reaches its end value.
func (tw *Tween) OnComplete(fn func()) *Tween {
	tw.onComplete = fn
	return tw
}

// Value returns the interpolated value at linear progress k.
func (tw *Tween) Value(k float64) float64 {
	k = math.Max(0, math.Min(1, k))
	return tw.from + (tw.to-tw.from)*tw.easing(k)
}

// update advances the tween to `now` and reports whether it finished. The first update pins the
// start time, so a tween starts on the frame after it was added.
func (tw *Tween) update(now time.Time) bool {
	if !tw.started {
		tw.started = true
		tw.start = now
	}
	k := 1.0
	if tw.duration > 0 {
		k = float64(now.Sub(tw.start)) / float64(tw.duration)
	}
	if tw.repeat && k >= 1 {
		cycles := math.Floor(k)
		tw.start = tw.start.Add(time.Duration(cycles * float64(tw.duration)))
		k -= cycles
	}
	if tw.onUpdate != nil {
		tw.onUpdate(tw.Value(k))
	}
	if k >= 1 && !tw.repeat {
		if tw.onComplete != nil {
			tw.onComplete()
		}
		return true
	}
	return false
}

// Group holds active tweens.
type Group struct {
	mu     sync.Mutex
	tweens []*Tween
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	return &Group{}
}

// Add registers tweens with the group. They start on the next Update.
func (g *Group) Add(tweens ...*Tween) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tweens = append(g.tweens, tweens...)
}

// Remove drops a tween without completing it.
func (g *Group) Remove(tw *Tween) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, existing := range g.tweens {
		if existing == tw {
			g.tweens = append(g.tweens[:i], g.tweens[i+1:]...)
			return
		}
	}
}

// Len returns the number of active tweens.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tweens)
}

// Update advances every tween to `now`, drops finished ones and returns how many remain.
// Callbacks run outside the group lock so they may add new tweens.
func (g *Group) Update(now time.Time) int {
	g.mu.Lock()
	active := make([]*Tween, len(g.tweens))
	copy(active, g.tweens)
	g.mu.Unlock()

	finished := map[*Tween]struct{}{}
	for _, tw := range active {
		if tw.update(now) {
			finished[tw] = struct{}{}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(finished) > 0 {
		kept := g.tweens[:0]
		for _, tw := range g.tweens {
			if _, done := finished[tw]; !done {
				kept = append(kept, tw)
			}
		}
		g.tweens = kept
	}
	return len(g.tweens)
}

// Default is the process wide group used by Update.
var Default = NewGroup()

// Update advances the Default group.
func Update(now time.Time) int {
	return Default.Update(now)
}
