// Package interaction turns pointer input into scene changes and events: a rotate-only transform
// widget on the earth container, zoom-only orbit controls on the camera, and a picker for data
// groups.
package interaction

import (
	"sync"

	"github.com/golang/geo/r3"

	"go.viam.com/chartscene/events"
	"go.viam.com/chartscene/scene"
)

// Transform widget modes.
const (
	ModeTranslate = "translate"
	ModeRotate    = "rotate"
	ModeScale     = "scale"
)

// DefaultRadiansPerPixel converts horizontal drag distance into rotation.
const DefaultRadiansPerPixel = 0.005

// TransformControls is a manipulation widget living in the scene. It is configured for rotation
// about Y only and is never drawn.
type TransformControls struct {
	scene.Object

	mu              sync.Mutex
	attached        scene.Node
	mode            string
	showX           bool
	showY           bool
	showZ           bool
	axis            string
	size            float64
	radiansPerPixel float64
	relay           *events.Relay
}

// NewTransformControls returns a hidden rotate widget with only the Y handle shown, no active
// axis and size 2.
func NewTransformControls(relay *events.Relay) *TransformControls {
	tc := &TransformControls{
		mode:            ModeRotate,
		showY:           true,
		size:            2,
		radiansPerPixel: DefaultRadiansPerPixel,
		relay:           relay,
	}
	tc.Init(tc, "transformControls", scene.KindControls)
	tc.SetVisible(false)
	return tc
}

// Attach makes `n` the node rotated by drags.
func (tc *TransformControls) Attach(n scene.Node) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.attached = n
}

// Detach stops rotating the attached node.
func (tc *TransformControls) Detach() {
	tc.Attach(nil)
}

// Attached returns the node rotated by drags.
func (tc *TransformControls) Attached() scene.Node {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.attached
}

// Mode returns the manipulation mode.
func (tc *TransformControls) Mode() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.mode
}

// Handles reports which per-axis handles are shown.
func (tc *TransformControls) Handles() (x, y, z bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.showX, tc.showY, tc.showZ
}

// Axis returns the active axis, empty when none is selected.
func (tc *TransformControls) Axis() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.axis
}

// Size returns the gizmo size.
func (tc *TransformControls) Size() float64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.size
}

// SetSensitivity sets the radians of rotation per pixel of horizontal drag.
func (tc *TransformControls) SetSensitivity(radiansPerPixel float64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.radiansPerPixel = radiansPerPixel
}

// Drag rotates the attached node about Y by the horizontal pointer delta and emits a rotate
// event. The vertical delta is ignored because the X and Z handles are hidden. It returns the
// applied rotation in radians.
func (tc *TransformControls) Drag(dx, dy float64) float64 {
	tc.mu.Lock()
	attached, showY, mode := tc.attached, tc.showY, tc.mode
	theta := dx * tc.radiansPerPixel
	tc.mu.Unlock()

	if attached == nil || !showY || mode != ModeRotate || theta == 0 {
		return 0
	}
	attached.RotateY(theta)
	if tc.relay != nil {
		tc.relay.Emit(events.Event{
			Name:   events.Rotate,
			Node:   attached,
			Screen: r3.Vector{X: dx, Y: dy},
			Delta:  theta,
		})
	}
	return theta
}
