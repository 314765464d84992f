package interaction

import (
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/chartscene/events"
	"go.viam.com/chartscene/logging"
	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/spatialmath"
)

type fixedSurface struct{ w, h int }

func (s fixedSurface) Size() (int, int) { return s.w, s.h }

func testCamera() *scene.OrthographicCamera {
	cam := scene.NewOrthographicCamera(-200, 200, 200, -200, 1, 1500)
	cam.SetPosition(r3.Vector{Z: 500})
	cam.LookAt(r3.Vector{})
	return cam
}

func record(relay *events.Relay, name string) *[]events.Event {
	var got []events.Event
	relay.On(name, func(ev events.Event) { got = append(got, ev) })
	return &got
}

func TestTransformControlsDefaults(t *testing.T) {
	tc := NewTransformControls(nil)
	test.That(t, tc.Visible(), test.ShouldBeFalse)
	test.That(t, tc.Kind(), test.ShouldEqual, scene.KindControls)
	test.That(t, tc.Mode(), test.ShouldEqual, ModeRotate)
	x, y, z := tc.Handles()
	test.That(t, x, test.ShouldBeFalse)
	test.That(t, y, test.ShouldBeTrue)
	test.That(t, z, test.ShouldBeFalse)
	test.That(t, tc.Axis(), test.ShouldBeEmpty)
	test.That(t, tc.Size(), test.ShouldEqual, 2.0)
	test.That(t, tc.Drag(100, 0), test.ShouldEqual, 0.0)
}

func TestTransformControlsDrag(t *testing.T) {
	relay := events.NewRelay(logging.NewTestLogger(t))
	rotations := record(relay, events.Rotate)
	container := scene.NewGroup("earthContainer")
	tc := NewTransformControls(relay)
	tc.Attach(container)
	test.That(t, tc.Attached(), test.ShouldEqual, container)

	tc.SetSensitivity(0.01)
	theta := tc.Drag(50, 400)
	test.That(t, theta, test.ShouldAlmostEqual, 0.5)
	test.That(t, spatialmath.AngleAboutY(container.Orientation()), test.ShouldAlmostEqual, 0.5)
	test.That(t, *rotations, test.ShouldHaveLength, 1)
	test.That(t, (*rotations)[0].Delta, test.ShouldAlmostEqual, 0.5)

	// vertical only drags do nothing
	test.That(t, tc.Drag(0, 30), test.ShouldEqual, 0.0)
	test.That(t, *rotations, test.ShouldHaveLength, 1)

	tc.Detach()
	test.That(t, tc.Drag(10, 0), test.ShouldEqual, 0.0)
}

func TestOrbitControlsZoomOnly(t *testing.T) {
	relay := events.NewRelay(logging.NewTestLogger(t))
	zooms := record(relay, events.Zoom)
	cam := testCamera()
	oc := NewOrbitControls(cam, relay)

	rotate, pan, zoom := oc.Enabled()
	test.That(t, rotate, test.ShouldBeFalse)
	test.That(t, pan, test.ShouldBeFalse)
	test.That(t, zoom, test.ShouldBeTrue)

	test.That(t, oc.Rotate(1, 0), test.ShouldBeFalse)
	test.That(t, oc.Pan(r3.Vector{X: 10}), test.ShouldBeFalse)
	test.That(t, cam.Position(), test.ShouldResemble, r3.Vector{Z: 500})

	test.That(t, oc.Zoom(-1), test.ShouldAlmostEqual, 1/DefaultZoomScale)
	test.That(t, *zooms, test.ShouldHaveLength, 1)
	test.That(t, oc.Zoom(-1000), test.ShouldEqual, float64(DefaultMaxZoom))
	test.That(t, oc.Zoom(-1), test.ShouldEqual, float64(DefaultMaxZoom))
	// no event when clamped without change
	test.That(t, *zooms, test.ShouldHaveLength, 2)
	test.That(t, oc.Zoom(1000), test.ShouldEqual, DefaultMinZoom)

	oc.Enable(false, false, false)
	test.That(t, oc.Zoom(-1), test.ShouldEqual, DefaultMinZoom)
}

func TestOrbitControlsRotateAndPanWhenEnabled(t *testing.T) {
	cam := testCamera()
	oc := NewOrbitControls(cam, nil)
	oc.Enable(true, true, true)

	test.That(t, oc.Rotate(math.Pi/2, 0), test.ShouldBeTrue)
	pos := cam.Position()
	test.That(t, pos.X, test.ShouldAlmostEqual, 500, 1e-6)
	test.That(t, pos.Z, test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, pos.Norm(), test.ShouldAlmostEqual, 500, 1e-6)

	test.That(t, oc.Pan(r3.Vector{Y: 5}), test.ShouldBeTrue)
	test.That(t, cam.Target(), test.ShouldResemble, r3.Vector{Y: 5})
}

func dataGroup(dataType, id string, at r3.Vector) *scene.Group {
	g := scene.NewGroup(id)
	g.SetUserData(scene.UserData{Type: dataType, ID: id})
	g.SetPosition(at)
	g.Add(scene.NewSprite("marker", 6, "#fff"))
	return g
}

func TestPicker(t *testing.T) {
	relay := events.NewRelay(logging.NewTestLogger(t))
	clicks := record(relay, events.Click)
	hovers := record(relay, events.Hover)

	container := scene.NewGroup("earthContainer")
	front := dataGroup("markers", "front", r3.Vector{X: 100, Z: 120})
	back := dataGroup("markers", "back", r3.Vector{X: -100, Z: -120})
	hidden := dataGroup("markers", "hidden", r3.Vector{Y: 100, Z: 120})
	hidden.SetVisible(false)
	container.Add(scene.NewGroup("earth"), front, back, hidden)

	picker := NewPicker(testCamera(), container, fixedSurface{400, 400}, relay)

	// x = 100 maps to pixel 300, y = 0 to pixel 200
	hit, ok := picker.Pick(302, 199)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.UserData().ID, test.ShouldEqual, "front")

	_, ok = picker.Pick(100, 200)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = picker.Pick(200, 100)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = picker.Pick(320, 200)
	test.That(t, ok, test.ShouldBeFalse)

	picker.HandlePointer(PointerEvent{Kind: PointerMove, X: 300, Y: 200})
	picker.HandlePointer(PointerEvent{Kind: PointerMove, X: 301, Y: 200})
	picker.HandlePointer(PointerEvent{Kind: PointerMove, X: 10, Y: 10})
	test.That(t, *hovers, test.ShouldHaveLength, 2)
	test.That(t, (*hovers)[0].ID, test.ShouldEqual, "front")
	test.That(t, (*hovers)[0].Type, test.ShouldEqual, "markers")
	test.That(t, (*hovers)[1].Node, test.ShouldBeNil)

	picker.HandlePointer(PointerEvent{Kind: PointerDown, X: 10, Y: 10})
	test.That(t, *clicks, test.ShouldBeEmpty)
	picker.HandlePointer(PointerEvent{Kind: PointerDown, X: 300, Y: 200})
	test.That(t, *clicks, test.ShouldHaveLength, 1)
	test.That(t, (*clicks)[0].ID, test.ShouldEqual, "front")
	test.That(t, (*clicks)[0].Screen, test.ShouldResemble, r3.Vector{X: 300, Y: 200})
}

func TestPickerFollowsRotation(t *testing.T) {
	container := scene.NewGroup("earthContainer")
	container.Add(dataGroup("points", "p", r3.Vector{X: 100, Z: 120}))
	picker := NewPicker(testCamera(), container, fixedSurface{400, 400}, nil)

	_, ok := picker.Pick(300, 200)
	test.That(t, ok, test.ShouldBeTrue)
	container.RotateY(math.Pi)
	_, ok = picker.Pick(300, 200)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = picker.Pick(100, 200)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestPickerRadius(t *testing.T) {
	container := scene.NewGroup("earthContainer")
	container.Add(dataGroup("points", "p", r3.Vector{X: 100, Z: 120}))
	picker := NewPicker(testCamera(), container, fixedSurface{400, 400}, nil)

	_, ok := picker.Pick(320, 200)
	test.That(t, ok, test.ShouldBeFalse)
	picker.SetRadius(25)
	hit, ok := picker.Pick(320, 200)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.UserData().ID, test.ShouldEqual, "p")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			picker.SetRadius(float64(10 + i%20))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			picker.Pick(300, 200)
		}
	}()
	wg.Wait()
}
