package scene

import (
	"github.com/golang/geo/r3"
)

// MeshShape tells a renderer how to interpret a mesh's vertices.
type MeshShape string

// Mesh shapes.
const (
	// ShapeSphere is a sphere of Radius centered on the mesh origin; vertices are unused.
	ShapeSphere MeshShape = "sphere"
	// ShapeLine is an open polyline through the vertices.
	ShapeLine MeshShape = "line"
	// ShapePolygon is a closed ring through the vertices.
	ShapePolygon MeshShape = "polygon"
	// ShapePoints draws each vertex as a dot of Radius.
	ShapePoints MeshShape = "points"
)

// Mesh is drawable geometry.
type Mesh struct {
	Object

	Shape    MeshShape
	Vertices []r3.Vector
	Radius   float64
	Color    string
	Opacity  float64
}

// NewMesh returns an opaque mesh.
func NewMesh(name string, shape MeshShape, color string) *Mesh {
	m := &Mesh{Shape: shape, Color: color, Opacity: 1}
	m.Init(m, name, KindMesh)
	return m
}

// Sprite is a camera facing disc of Size world units.
type Sprite struct {
	Object

	Size    float64
	Color   string
	Opacity float64
}

// NewSprite returns a sprite.
func NewSprite(name string, size float64, color string) *Sprite {
	s := &Sprite{Size: size, Color: color, Opacity: 1}
	s.Init(s, name, KindSprite)
	return s
}

// Label is text anchored at the node position.
type Label struct {
	Object

	Text  string
	Color string
	Size  float64
}

// NewLabel returns a label.
func NewLabel(name, text, color string, size float64) *Label {
	l := &Label{Text: text, Color: color, Size: size}
	l.Init(l, name, KindLabel)
	return l
}

// AxesHelper draws the X, Y and Z axes with length Size.
type AxesHelper struct {
	Object

	Size float64
}

// NewAxesHelper returns an axes helper.
func NewAxesHelper(size float64) *AxesHelper {
	h := &AxesHelper{Size: size}
	h.Init(h, "axesHelper", KindHelper)
	return h
}
