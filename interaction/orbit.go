package interaction

import (
	"math"
	"sync"

	"github.com/golang/geo/r3"

	"go.viam.com/chartscene/events"
	"go.viam.com/chartscene/scene"
)

// Zoom limits and the per step zoom multiplier.
const (
	DefaultMinZoom   = 0.25
	DefaultMaxZoom   = 8
	DefaultZoomScale = 0.95
)

// OrbitControls moves a camera around its target. Rotation and panning are disabled by default,
// leaving zoom as the only enabled gesture.
type OrbitControls struct {
	mu           sync.Mutex
	camera       scene.Camera
	relay        *events.Relay
	enableRotate bool
	enablePan    bool
	enableZoom   bool
	minZoom      float64
	maxZoom      float64
	zoomScale    float64
}

// NewOrbitControls returns zoom-only controls for `camera`.
func NewOrbitControls(camera scene.Camera, relay *events.Relay) *OrbitControls {
	return &OrbitControls{
		camera:     camera,
		relay:      relay,
		enableZoom: true,
		minZoom:    DefaultMinZoom,
		maxZoom:    DefaultMaxZoom,
		zoomScale:  DefaultZoomScale,
	}
}

// Enable switches gestures on or off.
func (oc *OrbitControls) Enable(rotate, pan, zoom bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.enableRotate, oc.enablePan, oc.enableZoom = rotate, pan, zoom
}

// Enabled reports which gestures are on.
func (oc *OrbitControls) Enabled() (rotate, pan, zoom bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.enableRotate, oc.enablePan, oc.enableZoom
}

// SetZoomLimits bounds the camera zoom.
func (oc *OrbitControls) SetZoomLimits(minZoom, maxZoom float64) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.minZoom, oc.maxZoom = minZoom, maxZoom
}

// Zoom applies `steps` wheel steps, positive zooming out, and emits a zoom event with the new
// zoom. It returns the camera zoom after the change.
func (oc *OrbitControls) Zoom(steps float64) float64 {
	oc.mu.Lock()
	enabled, minZoom, maxZoom, scale := oc.enableZoom, oc.minZoom, oc.maxZoom, oc.zoomScale
	oc.mu.Unlock()

	current := oc.camera.Zoom()
	if !enabled || steps == 0 {
		return current
	}
	next := math.Max(minZoom, math.Min(maxZoom, current*math.Pow(scale, steps)))
	if next == current {
		return current
	}
	oc.camera.SetZoom(next)
	if oc.relay != nil {
		oc.relay.Emit(events.Event{Name: events.Zoom, Node: oc.camera, Delta: next})
	}
	return next
}

// Rotate orbits the camera around its target by angles in radians: yaw about +Y then pitch. It
// reports whether the camera moved.
func (oc *OrbitControls) Rotate(yaw, pitch float64) bool {
	oc.mu.Lock()
	enabled := oc.enableRotate
	oc.mu.Unlock()
	if !enabled {
		return false
	}
	target := oc.camera.Target()
	offset := oc.camera.Position().Sub(target)
	radius := offset.Norm()
	if radius == 0 {
		return false
	}
	theta := math.Atan2(offset.X, offset.Z) + yaw
	phi := math.Acos(offset.Y/radius) - pitch
	// keep away from the poles so the up vector stays defined
	phi = math.Max(1e-3, math.Min(math.Pi-1e-3, phi))
	oc.camera.SetPosition(target.Add(r3.Vector{
		X: radius * math.Sin(phi) * math.Sin(theta),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Cos(theta),
	}))
	return true
}

// Pan shifts both camera and target by `delta` in world units. It reports whether the camera
// moved.
func (oc *OrbitControls) Pan(delta r3.Vector) bool {
	oc.mu.Lock()
	enabled := oc.enablePan
	oc.mu.Unlock()
	if !enabled {
		return false
	}
	oc.camera.SetPosition(oc.camera.Position().Add(delta))
	oc.camera.LookAt(oc.camera.Target().Add(delta))
	return true
}
