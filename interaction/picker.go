package interaction

import (
	"math"
	"sync"

	"github.com/golang/geo/r3"

	"go.viam.com/chartscene/events"
	"go.viam.com/chartscene/scene"
)

// DefaultPickRadius is how far from a data node, in surface pixels, a pointer still hits it.
const DefaultPickRadius = 8

// PointerKind is the kind of a pointer event.
type PointerKind int

// Pointer event kinds.
const (
	PointerMove PointerKind = iota
	PointerDown
)

// PointerEvent is pointer input in surface pixels.
type PointerEvent struct {
	Kind PointerKind
	X, Y float64
}

// Surface is what the picker projects onto.
type Surface interface {
	Size() (width, height int)
}

// Picker finds data groups under the pointer and reports them through a relay.
type Picker struct {
	camera    scene.Camera
	container scene.Node
	surface   Surface
	relay     *events.Relay

	mu      sync.Mutex
	radius  float64
	hovered scene.Node
}

// NewPicker returns a picker over the data groups under `container`.
func NewPicker(camera scene.Camera, container scene.Node, surface Surface, relay *events.Relay) *Picker {
	return &Picker{camera: camera, container: container, surface: surface, relay: relay, radius: DefaultPickRadius}
}

// SetRadius sets the hit radius in surface pixels.
func (p *Picker) SetRadius(radius float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.radius = radius
}

// Pick returns the data group nearest to (x, y) within the hit radius. Content on the far side of
// the container's center is not pickable.
func (p *Picker) Pick(x, y float64) (scene.Node, bool) {
	width, height := p.surface.Size()
	w, h := float64(width), float64(height)
	if w <= 0 || h <= 0 {
		return nil, false
	}
	horizon := math.Inf(1)
	if center, ok := p.camera.Project(scene.WorldPosition(p.container), w, h); ok {
		horizon = center.Depth
	}

	p.mu.Lock()
	radius := p.radius
	p.mu.Unlock()

	var (
		best      scene.Node
		bestDist  = radius
		bestDepth = math.Inf(1)
	)
	consider := func(group scene.Node, world r3.Vector) {
		pt, ok := p.camera.Project(world, w, h)
		if !ok || pt.Depth > horizon {
			return
		}
		d := math.Hypot(pt.X-x, pt.Y-y)
		if d < bestDist || (d == bestDist && pt.Depth < bestDepth) {
			best, bestDist, bestDepth = group, d, pt.Depth
		}
	}

	scene.WalkVisible(p.container, func(n scene.Node) {
		group := scene.DataNodeOf(n)
		if group == nil {
			return
		}
		switch node := n.(type) {
		case *scene.Mesh:
			world := scene.WorldTransform(node)
			if len(node.Vertices) == 0 {
				consider(group, world.Position)
			}
			for _, v := range node.Vertices {
				consider(group, world.Apply(v))
			}
		case *scene.Sprite, *scene.Label:
			consider(group, scene.WorldPosition(node))
		}
	})
	return best, best != nil
}

// HandlePointer emits click for a press on a data group and hover whenever the group under the
// pointer changes, with a nil node when it leaves content.
func (p *Picker) HandlePointer(ev PointerEvent) {
	hit, _ := p.Pick(ev.X, ev.Y)
	screen := r3.Vector{X: ev.X, Y: ev.Y}
	switch ev.Kind {
	case PointerDown:
		if hit != nil {
			p.emit(events.Click, hit, screen)
		}
	case PointerMove:
		p.mu.Lock()
		changed := p.hovered != hit
		p.hovered = hit
		p.mu.Unlock()
		if changed {
			p.emit(events.Hover, hit, screen)
		}
	}
}

func (p *Picker) emit(name string, n scene.Node, screen r3.Vector) {
	if p.relay == nil {
		return
	}
	ev := events.Event{Name: name, Node: n, Screen: screen}
	if n != nil {
		ud := n.UserData()
		ev.Type, ev.ID = ud.Type, ud.ID
	}
	p.relay.Emit(ev)
}
