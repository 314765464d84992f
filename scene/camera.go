package scene

import (
	"math"

	"github.com/golang/geo/r3"
)

// ScreenPoint is a projected point in surface pixels, with its distance in front of the camera.
type ScreenPoint struct {
	X, Y  float64
	Depth float64
}

// Camera projects world space onto a render surface.
type Camera interface {
	Node
	// LookAt points the camera at `target`, keeping +Y up.
	LookAt(target r3.Vector)
	Target() r3.Vector
	Zoom() float64
	SetZoom(zoom float64)
	// Project maps a world point onto a surface of the given pixel size. ok is false for points
	// outside the near/far range.
	Project(world r3.Vector, width, height float64) (pt ScreenPoint, ok bool)
}

var worldUp = r3.Vector{X: 0, Y: 1, Z: 0}

type cameraBase struct {
	Object

	target r3.Vector
	zoom   float64
}

func (c *cameraBase) LookAt(target r3.Vector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

func (c *cameraBase) Target() r3.Vector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

func (c *cameraBase) Zoom() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zoom
}

func (c *cameraBase) SetZoom(zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = zoom
}

// view expresses a world point in camera space: +X right, +Y up, looking down -Z.
func (c *cameraBase) view(world r3.Vector) r3.Vector {
	c.mu.RLock()
	pos, target := c.position, c.target
	c.mu.RUnlock()

	zAxis := pos.Sub(target)
	if zAxis.Norm() == 0 {
		zAxis = r3.Vector{X: 0, Y: 0, Z: 1}
	}
	zAxis = zAxis.Normalize()
	xAxis := worldUp.Cross(zAxis)
	if xAxis.Norm() < 1e-9 {
		// Looking straight up or down; any horizontal right vector works.
		xAxis = r3.Vector{X: 1, Y: 0, Z: 0}
	}
	xAxis = xAxis.Normalize()
	yAxis := zAxis.Cross(xAxis)

	d := world.Sub(pos)
	return r3.Vector{X: d.Dot(xAxis), Y: d.Dot(yAxis), Z: d.Dot(zAxis)}
}

func toScreen(ndcX, ndcY, depth, width, height float64) ScreenPoint {
	return ScreenPoint{
		X:     (ndcX + 1) / 2 * width,
		Y:     (1 - ndcY) / 2 * height,
		Depth: depth,
	}
}

// OrthographicCamera projects without perspective inside the box Left..Right, Bottom..Top.
type OrthographicCamera struct {
	cameraBase

	Left, Right, Top, Bottom float64
	Near, Far                float64
}

// NewOrthographicCamera returns an orthographic camera with zoom 1.
func NewOrthographicCamera(left, right, top, bottom, near, far float64) *OrthographicCamera {
	c := &OrthographicCamera{Left: left, Right: right, Top: top, Bottom: bottom, Near: near, Far: far}
	c.Init(c, "orthographicCamera", KindCamera)
	c.zoom = 1
	return c
}

// Project implements Camera.
func (c *OrthographicCamera) Project(world r3.Vector, width, height float64) (ScreenPoint, bool) {
	v := c.view(world)
	depth := -v.Z
	zoom := c.Zoom()
	halfW := (c.Right - c.Left) / (2 * zoom)
	halfH := (c.Top - c.Bottom) / (2 * zoom)
	if halfW == 0 || halfH == 0 {
		return ScreenPoint{}, false
	}
	ndcX := (v.X - (c.Right+c.Left)/2) / halfW
	ndcY := (v.Y - (c.Top+c.Bottom)/2) / halfH
	pt := toScreen(ndcX, ndcY, depth, width, height)
	return pt, depth >= c.Near && depth <= c.Far
}

// PerspectiveCamera projects with a vertical field of view FOV in degrees.
type PerspectiveCamera struct {
	cameraBase

	FOV    float64
	Aspect float64
	Near   float64
	Far    float64
}

// NewPerspectiveCamera returns a perspective camera with zoom 1.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{FOV: fov, Aspect: aspect, Near: near, Far: far}
	c.Init(c, "perspectiveCamera", KindCamera)
	c.zoom = 1
	return c
}

// Project implements Camera.
func (c *PerspectiveCamera) Project(world r3.Vector, width, height float64) (ScreenPoint, bool) {
	v := c.view(world)
	depth := -v.Z
	if depth <= 0 || c.Aspect == 0 {
		return ScreenPoint{}, false
	}
	focal := c.Zoom() / math.Tan(c.FOV*math.Pi/360)
	ndcX := v.X * focal / (c.Aspect * depth)
	ndcY := v.Y * focal / depth
	pt := toScreen(ndcX, ndcY, depth, width, height)
	return pt, depth >= c.Near && depth <= c.Far
}
