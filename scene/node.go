// Package scene implements the scene graph rendered by chartscene: a tree of named nodes with
// local transforms. Every node guards its own state so a render walk may run while another
// goroutine mutates the tree.
package scene

import (
	"sync"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"go.viam.com/chartscene/spatialmath"
)

// Kind identifies the concrete type of a node.
type Kind string

// Node kinds.
const (
	KindScene    Kind = "Scene"
	KindGroup    Kind = "Group"
	KindMesh     Kind = "Mesh"
	KindSprite   Kind = "Sprite"
	KindLabel    Kind = "Label"
	KindCamera   Kind = "Camera"
	KindLight    Kind = "Light"
	KindHelper   Kind = "Helper"
	KindControls Kind = "Controls"
)

// UserData is caller metadata attached to a node. Data groups record the data type label and
// the caller supplied id here.
type UserData struct {
	Type  string
	ID    string
	Props map[string]any
}

// Node is an element of the scene graph.
type Node interface {
	// AsObject returns the embedded Object that implements the shared node behavior.
	AsObject() *Object

	Name() string
	SetName(name string)
	ID() string
	Kind() Kind

	Parent() Node
	Children() []Node
	Add(children ...Node)
	Remove(children ...Node)

	Visible() bool
	SetVisible(visible bool)

	Position() r3.Vector
	SetPosition(pos r3.Vector)
	Orientation() spatialmath.Orientation
	SetOrientation(o spatialmath.Orientation)
	RotateY(theta float64)
	Scale() float64
	SetScale(scale float64)

	UserData() UserData
	SetUserData(data UserData)
}

// Object carries the state shared by every node. Concrete node types embed it and call Init.
type Object struct {
	mu sync.RWMutex

	self   Node
	id     string
	name   string
	kind   Kind
	parent Node

	children []Node

	visible     bool
	position    r3.Vector
	orientation spatialmath.Orientation
	scale       float64
	userData    UserData
}

// Init prepares the object. `self` is the node embedding the object, used as the parent of
// added children.
func (o *Object) Init(self Node, name string, kind Kind) {
	o.self = self
	o.id = uuid.NewString()
	o.name = name
	o.kind = kind
	o.visible = true
	o.orientation = spatialmath.NewZeroOrientation()
	o.scale = 1
}

// AsObject returns the object itself.
func (o *Object) AsObject() *Object {
	return o
}

// Name returns the node name.
func (o *Object) Name() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.name
}

// SetName renames the node.
func (o *Object) SetName(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.name = name
}

// ID returns a unique, immutable node id.
func (o *Object) ID() string {
	return o.id
}

// Kind returns the node kind.
func (o *Object) Kind() Kind {
	return o.kind
}

// Parent returns the parent node, nil for roots and detached nodes.
func (o *Object) Parent() Node {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.parent
}

func (o *Object) setParent(parent Node) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parent = parent
}

// Children returns a snapshot of the node's children.
func (o *Object) Children() []Node {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Node, len(o.children))
	copy(out, o.children)
	return out
}

// Add appends children, detaching each from any previous parent first. Adding a node to itself
// or adding nil is ignored.
func (o *Object) Add(children ...Node) {
	o.Swap(nil, children)
}

// Remove detaches the given children.
func (o *Object) Remove(children ...Node) {
	if len(children) == 0 {
		return
	}
	set := make(map[*Object]struct{}, len(children))
	for _, child := range children {
		if child != nil {
			set[child.AsObject()] = struct{}{}
		}
	}
	o.Swap(func(n Node) bool {
		_, ok := set[n.AsObject()]
		return ok
	}, nil)
}

// Swap removes every child matched by `remove` and appends `add` under one lock, so readers see
// either the old or the new children but never a state in between. It returns the removed nodes.
func (o *Object) Swap(remove func(Node) bool, add []Node) []Node {
	add = lo.Filter(add, func(child Node, _ int) bool {
		return child != nil && child.AsObject() != o
	})
	// Detach from previous parents before taking our own lock so two parents are never locked at
	// once.
	for _, child := range add {
		if prev := child.Parent(); prev != nil && prev.AsObject() != o {
			prev.Remove(child)
		}
	}

	o.mu.Lock()
	var removed []Node
	kept := make([]Node, 0, len(o.children)+len(add))
	for _, child := range o.children {
		if remove != nil && remove(child) {
			removed = append(removed, child)
			continue
		}
		kept = append(kept, child)
	}
	for _, child := range add {
		if lo.Contains(kept, child) {
			continue
		}
		kept = append(kept, child)
	}
	o.children = kept
	o.mu.Unlock()

	for _, child := range removed {
		child.AsObject().setParentIf(o.self, nil)
	}
	for _, child := range add {
		child.AsObject().setParent(o.self)
	}
	return removed
}

// setParentIf clears or replaces the parent only if it is still `expected`. A child moved to a
// new parent concurrently keeps the new one.
func (o *Object) setParentIf(expected, parent Node) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.parent == expected {
		o.parent = parent
	}
}

// Visible reports whether the node and its subtree are drawn.
func (o *Object) Visible() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.visible
}

// SetVisible toggles drawing of the node and its subtree.
func (o *Object) SetVisible(visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = visible
}

// Position returns the position relative to the parent.
func (o *Object) Position() r3.Vector {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.position
}

// SetPosition sets the position relative to the parent.
func (o *Object) SetPosition(pos r3.Vector) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.position = pos
}

// Orientation returns the rotation relative to the parent.
func (o *Object) Orientation() spatialmath.Orientation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.orientation
}

// SetOrientation sets the rotation relative to the parent.
func (o *Object) SetOrientation(orientation spatialmath.Orientation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orientation = orientation
}

// RotateY rotates the node about its local Y axis.
func (o *Object) RotateY(theta float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orientation = spatialmath.RotateY(o.orientation, theta)
}

// Scale returns the uniform scale relative to the parent.
func (o *Object) Scale() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.scale
}

// SetScale sets the uniform scale relative to the parent.
func (o *Object) SetScale(scale float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scale = scale
}

// UserData returns the node metadata.
func (o *Object) UserData() UserData {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.userData
}

// SetUserData replaces the node metadata.
func (o *Object) SetUserData(data UserData) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.userData = data
}
