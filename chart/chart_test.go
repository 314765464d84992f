package chart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/chartscene/config"
	"go.viam.com/chartscene/events"
	"go.viam.com/chartscene/interaction"
	"go.viam.com/chartscene/logging"
	"go.viam.com/chartscene/operate"
	"go.viam.com/chartscene/render"
	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/spatialmath"
)

type idleFrames struct{}

func (idleFrames) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestChart(t *testing.T, opts config.Options) (*Chart, *render.ImageRenderer) {
	t.Helper()
	renderer := render.NewImageRenderer(true)
	c, err := New(context.Background(), opts, logging.NewTestLogger(t),
		WithRenderer(renderer),
		WithClock(clock.NewMock()),
		WithFrameSource(idleFrames{}),
	)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { test.That(t, c.Close(), test.ShouldBeNil) })
	return c, renderer
}

func defaultOptions() config.Options {
	speed := 0.01
	autoRotate := true
	return config.Options{
		Surface:     config.Surface{Width: 160, Height: 90},
		CameraType:  config.OrthographicCamera,
		AutoRotate:  &autoRotate,
		RotateSpeed: &speed,
	}
}

func markers(ids ...string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"id": id, "lon": 10, "lat": 20})
	}
	return out
}

func groupIDs(c *Chart, dataType string) []string {
	var ids []string
	for _, n := range c.DataGroups(dataType) {
		ids = append(ids, n.UserData().ID)
	}
	return ids
}

func TestNewRejectsBadOptions(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := New(context.Background(), config.Options{}, logger, WithFrameSource(idleFrames{}))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "positive dimensions")

	opts := defaultOptions()
	opts.CameraType = "FisheyeCamera"
	_, err = New(context.Background(), opts, logger, WithFrameSource(idleFrames{}))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "FisheyeCamera")

	opts = defaultOptions()
	opts.Config = map[string]any{"R": -1}
	_, err = New(context.Background(), opts, logger, WithFrameSource(idleFrames{}))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid visualization config")
}

func TestSceneLayout(t *testing.T) {
	c, renderer := newTestChart(t, defaultOptions())
	test.That(t, c.Container().Name(), test.ShouldEqual, EarthContainerName)
	test.That(t, c.Container().Parent(), test.ShouldEqual, c.Scene())
	test.That(t, c.Container().Children(), test.ShouldHaveLength, 2)
	test.That(t, renderer.ClearColor(), test.ShouldEqual, "#040d21")
	test.That(t, c.Loop().Running(), test.ShouldBeTrue)

	// the transform widget is in the scene but hidden and bound to the container
	test.That(t, c.transform.Parent(), test.ShouldEqual, c.Scene())
	test.That(t, c.transform.Visible(), test.ShouldBeFalse)
	test.That(t, c.transform.Attached(), test.ShouldEqual, c.Container())
	rotate, pan, zoom := c.orbit.Enabled()
	test.That(t, rotate, test.ShouldBeFalse)
	test.That(t, pan, test.ShouldBeFalse)
	test.That(t, zoom, test.ShouldBeTrue)
}

func TestMarkersRemoveByID(t *testing.T) {
	c, _ := newTestChart(t, defaultOptions())
	ctx := context.Background()
	test.That(t, c.SetData(ctx, operate.Markers, markers("a", "b")), test.ShouldBeNil)
	test.That(t, groupIDs(c, operate.Markers), test.ShouldResemble, []string{"a", "b"})

	test.That(t, c.Remove(ctx, operate.Markers, "a"), test.ShouldBeNil)
	test.That(t, groupIDs(c, operate.Markers), test.ShouldResemble, []string{"b"})
}

func TestSetDataThenRemoveAll(t *testing.T) {
	c, _ := newTestChart(t, defaultOptions())
	ctx := context.Background()
	test.That(t, c.SetData(ctx, operate.Points, markers("p1", "p2", "p3")), test.ShouldBeNil)
	test.That(t, c.SetData(ctx, operate.Markers, markers("m")), test.ShouldBeNil)
	test.That(t, c.Remove(ctx, operate.Points, operate.RemoveAllWildcard), test.ShouldBeNil)
	test.That(t, c.DataGroups(operate.Points), test.ShouldBeEmpty)
	test.That(t, groupIDs(c, operate.Markers), test.ShouldResemble, []string{"m"})

	test.That(t, c.Remove(ctx, operate.Markers), test.ShouldBeNil)
	test.That(t, c.DataGroups(operate.Markers), test.ShouldBeEmpty)
	// earth and halo stay
	test.That(t, c.Container().Children(), test.ShouldHaveLength, 2)
}

func TestRemoveAllSpellings(t *testing.T) {
	c, _ := newTestChart(t, defaultOptions())
	ctx := context.Background()
	test.That(t, c.SetData(ctx, operate.Points, markers("p1", "p2")), test.ShouldBeNil)
	test.That(t, c.Remove(ctx, operate.Points, operate.AllWildcard), test.ShouldBeNil)
	test.That(t, c.DataGroups(operate.Points), test.ShouldBeEmpty)

	test.That(t, c.SetData(ctx, operate.Points, markers("p1", "p2")), test.ShouldBeNil)
	test.That(t, c.Remove(ctx, operate.Points, "p2", operate.RemoveAllWildcard), test.ShouldBeNil)
	test.That(t, c.DataGroups(operate.Points), test.ShouldBeEmpty)
}

func pinGroup(id string) scene.Node {
	g := scene.NewGroup(id)
	g.SetUserData(scene.UserData{ID: id})
	return g
}

func TestRegisterDataType(t *testing.T) {
	c, _ := newTestChart(t, defaultOptions())
	ctx := context.Background()
	err := c.SetData(ctx, "pins", nil)
	test.That(t, errors.Is(err, operate.ErrUnknownDataType), test.ShouldBeTrue)

	c.Register("pins", operate.HandlerFunc(func(ctx context.Context, env *operate.Env, data any) ([]scene.Node, error) {
		return []scene.Node{pinGroup("pin")}, nil
	}))
	test.That(t, c.DataTypes(), test.ShouldContain, "pins")
	test.That(t, c.SetData(ctx, "pins", nil), test.ShouldBeNil)
	test.That(t, groupIDs(c, "pins"), test.ShouldResemble, []string{"pin"})
	test.That(t, c.Remove(ctx, "pins"), test.ShouldBeNil)
	test.That(t, c.DataGroups("pins"), test.ShouldBeEmpty)
}

// slowHandler signals once it starts building, then waits for its context to end and returns a
// group anyway.
func slowHandler(started chan<- struct{}) operate.Handler {
	return operate.HandlerFunc(func(ctx context.Context, env *operate.Env, data any) ([]scene.Node, error) {
		close(started)
		<-ctx.Done()
		return []scene.Node{pinGroup("late")}, nil
	})
}

func TestCancelledSetDataDoesNotLand(t *testing.T) {
	c, _ := newTestChart(t, defaultOptions())
	started := make(chan struct{})
	c.Register("slow", slowHandler(started))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.SetData(ctx, "slow", nil) }()
	<-started
	cancel()
	err := <-done
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, c.DataGroups("slow"), test.ShouldBeEmpty)

	// the queue keeps working
	test.That(t, c.SetData(context.Background(), operate.Points, markers("a")), test.ShouldBeNil)
	test.That(t, groupIDs(c, operate.Points), test.ShouldResemble, []string{"a"})
}

func TestCloseCancelsRunningBuild(t *testing.T) {
	c, err := New(context.Background(), defaultOptions(), logging.NewTestLogger(t),
		WithClock(clock.NewMock()), WithFrameSource(idleFrames{}))
	test.That(t, err, test.ShouldBeNil)
	started := make(chan struct{})
	c.Register("slow", slowHandler(started))

	done := make(chan error, 1)
	go func() { done <- c.SetData(context.Background(), "slow", nil) }()
	<-started
	test.That(t, c.Close(), test.ShouldBeNil)
	test.That(t, <-done, test.ShouldBeError, ErrClosed)
	test.That(t, c.DataGroups("slow"), test.ShouldBeEmpty)
}

func TestSetDataReplacesAndAddDataAppends(t *testing.T) {
	c, _ := newTestChart(t, defaultOptions())
	ctx := context.Background()
	test.That(t, c.AddData(ctx, operate.Points, markers("a")), test.ShouldBeNil)
	test.That(t, c.AddData(ctx, operate.Points, markers("b", "c")), test.ShouldBeNil)
	test.That(t, groupIDs(c, operate.Points), test.ShouldResemble, []string{"a", "b", "c"})

	test.That(t, c.SetData(ctx, operate.Points, markers("d")), test.ShouldBeNil)
	test.That(t, groupIDs(c, operate.Points), test.ShouldResemble, []string{"d"})
}

func TestFailedSetDataKeepsOldContent(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	c, err := New(context.Background(), defaultOptions(), logger,
		WithClock(clock.NewMock()), WithFrameSource(idleFrames{}))
	test.That(t, err, test.ShouldBeNil)
	defer c.Close()

	ctx := context.Background()
	test.That(t, c.SetData(ctx, operate.Labels, []any{map[string]any{"id": "x", "text": "Oslo"}}), test.ShouldBeNil)

	err = c.SetData(ctx, operate.Labels, []any{map[string]any{"id": "y"}})
	var buildErr *operate.BuildError
	test.That(t, errors.As(err, &buildErr), test.ShouldBeTrue)
	test.That(t, buildErr.Type, test.ShouldEqual, operate.Labels)
	test.That(t, groupIDs(c, operate.Labels), test.ShouldResemble, []string{"x"})
	test.That(t, logs.FilterMessage("setData failed").Len(), test.ShouldEqual, 1)

	err = c.AddData(ctx, "heatmap", nil)
	test.That(t, errors.Is(err, operate.ErrUnknownDataType), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("addData failed").Len(), test.ShouldEqual, 1)
}

func TestConcurrentMutationsAreLinearized(t *testing.T) {
	c, _ := newTestChart(t, defaultOptions())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			test.That(t, c.AddData(ctx, operate.Points, markers(fmt.Sprint(i))), test.ShouldBeNil)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			c.Loop().Tick()
		}
	}()
	wg.Wait()
	test.That(t, c.DataGroups(operate.Points), test.ShouldHaveLength, 20)
}

func TestAutoRotateAfterHundredFrames(t *testing.T) {
	c, renderer := newTestChart(t, defaultOptions())
	for i := 0; i < 100; i++ {
		test.That(t, c.Loop().Tick(), test.ShouldBeTrue)
	}
	test.That(t, spatialmath.AngleAboutY(c.Container().Orientation()), test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, renderer.Frames(), test.ShouldEqual, 100)
}

func TestLimitedFPSSkipsFrames(t *testing.T) {
	opts := defaultOptions()
	opts.LimitFPS = true
	c, renderer := newTestChart(t, opts)
	// the mock clock never advances so the gate never opens
	for i := 0; i < 10; i++ {
		test.That(t, c.Loop().Tick(), test.ShouldBeFalse)
	}
	test.That(t, renderer.Frames(), test.ShouldEqual, 0)
}

func TestEventsAndInteraction(t *testing.T) {
	c, _ := newTestChart(t, defaultOptions())
	var rotations, zooms []events.Event
	var mu sync.Mutex
	off := c.On(events.Rotate, func(ev events.Event) {
		mu.Lock()
		defer mu.Unlock()
		rotations = append(rotations, ev)
	})
	c.On(events.Zoom, func(ev events.Event) { zooms = append(zooms, ev) })

	test.That(t, c.Drag(100, 0), test.ShouldBeGreaterThan, 0)
	test.That(t, rotations, test.ShouldHaveLength, 1)
	test.That(t, rotations[0].Node, test.ShouldEqual, c.Container())
	off()
	c.Drag(100, 0)
	test.That(t, rotations, test.ShouldHaveLength, 1)

	test.That(t, c.Zoom(-1), test.ShouldBeGreaterThan, 1)
	test.That(t, zooms, test.ShouldHaveLength, 1)

	var clicks []events.Event
	c.On(events.Click, func(ev events.Event) { clicks = append(clicks, ev) })
	c.HandlePointer(interaction.PointerEvent{Kind: interaction.PointerDown, X: 1, Y: 1})
	test.That(t, clicks, test.ShouldBeEmpty)
}

func TestClose(t *testing.T) {
	c, err := New(context.Background(), defaultOptions(), logging.NewTestLogger(t),
		WithRenderer(render.NewImageRenderer(true)), WithFrameSource(idleFrames{}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Close(), test.ShouldBeNil)
	test.That(t, c.Close(), test.ShouldBeNil)
	test.That(t, c.Loop().Running(), test.ShouldBeFalse)
	test.That(t, c.SetData(context.Background(), operate.Points, markers("a")), test.ShouldBeError, ErrClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(ctx, defaultOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeError, context.Canceled)
}
