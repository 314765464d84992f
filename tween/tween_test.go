package tween

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestTweenRunsToCompletion(t *testing.T) {
	start := time.Unix(0, 0)
	var values []float64
	completed := 0
	group := NewGroup()
	group.Add(New(0, 10, 100*time.Millisecond).
		OnUpdate(func(v float64) { values = append(values, v) }).
		OnComplete(func() { completed++ }))

	test.That(t, group.Update(start), test.ShouldEqual, 1)
	test.That(t, group.Update(start.Add(50*time.Millisecond)), test.ShouldEqual, 1)
	test.That(t, group.Update(start.Add(150*time.Millisecond)), test.ShouldEqual, 0)
	test.That(t, values, test.ShouldResemble, []float64{0, 5, 10})
	test.That(t, completed, test.ShouldEqual, 1)

	// Finished tweens are gone.
	test.That(t, group.Update(start.Add(time.Second)), test.ShouldEqual, 0)
	test.That(t, values, test.ShouldHaveLength, 3)
}

func TestRepeatingTweenNeverCompletes(t *testing.T) {
	start := time.Unix(0, 0)
	var last float64
	tw := New(0, 1, 100*time.Millisecond).Repeat(true).OnUpdate(func(v float64) { last = v })
	group := NewGroup()
	group.Add(tw)
	group.Update(start)
	group.Update(start.Add(250 * time.Millisecond))
	test.That(t, last, test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, group.Len(), test.ShouldEqual, 1)

	group.Remove(tw)
	test.That(t, group.Len(), test.ShouldEqual, 0)
}

func TestEasings(t *testing.T) {
	for _, easing := range []Easing{Linear, QuadraticInOut, CubicOut, SineInOut} {
		test.That(t, easing(0), test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, easing(1), test.ShouldAlmostEqual, 1, 1e-9)
	}
	test.That(t, QuadraticInOut(0.5), test.ShouldAlmostEqual, 0.5, 1e-9)
	tw := New(2, 4, time.Second).Easing(nil)
	test.That(t, tw.Value(0.25), test.ShouldAlmostEqual, 2.5, 1e-9)
	test.That(t, tw.Value(2), test.ShouldEqual, 4.0)
}

func TestCallbacksMayAddTweens(t *testing.T) {
	start := time.Unix(0, 0)
	group := NewGroup()
	chained := false
	group.Add(New(0, 1, 0).OnComplete(func() {
		group.Add(New(1, 0, 0).OnComplete(func() { chained = true }))
	}))
	test.That(t, group.Update(start), test.ShouldEqual, 1)
	test.That(t, group.Update(start), test.ShouldEqual, 0)
	test.That(t, chained, test.ShouldBeTrue)
}

func TestDefaultGroup(t *testing.T) {
	Default.Add(New(0, 1, 0))
	test.That(t, Update(time.Unix(0, 0)), test.ShouldEqual, 0)
}
