// Package render draws a scene graph onto a surface.
package render

import (
	"image"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r3"
	"github.com/lmittmann/ppm"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/image/font/gofont/goregular"

	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/utils"
)

// Renderer draws a scene as seen from a camera.
type Renderer interface {
	Render(s *scene.Scene, cam scene.Camera) error
	SetPixelRatio(ratio float64)
	SetSize(width, height int) error
	SetClearColor(hex string) error
	Size() (width, height int)
}

// ErrNoSize is returned when rendering before a size was set.
var ErrNoSize = errors.New("renderer size not set")

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// lineWidth is the stroke width of line and polygon meshes in surface pixels.
const lineWidth = 1.5

// ImageRenderer is a software renderer drawing into an in-memory RGBA image.
type ImageRenderer struct {
	mu         sync.Mutex
	antialias  bool
	width      int
	height     int
	pixelRatio float64
	clear      colorful.Color
	frame      *image.RGBA
	frames     int
}

// NewImageRenderer returns a renderer with pixel ratio 1 and a black clear color.
func NewImageRenderer(antialias bool) *ImageRenderer {
	return &ImageRenderer{antialias: antialias, pixelRatio: 1}
}

// Antialias reports whether the renderer was created with antialiasing.
func (r *ImageRenderer) Antialias() bool {
	return r.antialias
}

// SetPixelRatio sets the device pixel ratio. Ratios that are not positive are treated as 1.
func (r *ImageRenderer) SetPixelRatio(ratio float64) {
	if ratio <= 0 || math.IsNaN(ratio) {
		ratio = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pixelRatio = ratio
}

// PixelRatio returns the device pixel ratio.
func (r *ImageRenderer) PixelRatio() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pixelRatio
}

// SetSize sets the surface size in logical pixels.
func (r *ImageRenderer) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return utils.NewInvalidDimensionsError(width, height)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	return nil
}

// Size returns the surface size in logical pixels.
func (r *ImageRenderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// SetClearColor sets the background from a hex color such as "#040D21".
func (r *ImageRenderer) SetClearColor(hex string) error {
	c, err := parseColor(hex)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear = c
	return nil
}

// ClearColor returns the background color as a hex string.
func (r *ImageRenderer) ClearColor() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clear.Hex()
}

// Frames returns how many frames were rendered.
func (r *ImageRenderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Snapshot returns a copy of the last rendered frame, or nil before the first one.
func (r *ImageRenderer) Snapshot() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return nil
	}
	out := image.NewRGBA(r.frame.Bounds())
	draw.Draw(out, out.Bounds(), r.frame, image.Point{}, draw.Src)
	return out
}

// WritePNG saves the last rendered frame.
func (r *ImageRenderer) WritePNG(path string) error {
	img := r.Snapshot()
	if img == nil {
		return errors.New("nothing rendered yet")
	}
	return errors.Wrapf(gg.SavePNG(path, img), "writing %q", path)
}

// WriteImage saves the last rendered frame in the format named by the extension of `path`: .png
// or .ppm.
func (r *ImageRenderer) WriteImage(path string) (err error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return r.WritePNG(path)
	case ".ppm":
	default:
		return errors.Errorf("unsupported image format %q, expected .png or .ppm", ext)
	}
	img := r.Snapshot()
	if img == nil {
		return errors.New("nothing rendered yet")
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return errors.Wrapf(ppm.Encode(f, img), "writing %q", path)
}

// Render draws every visible mesh, sprite and label of `s` as seen by `cam`, back to front.
func (r *ImageRenderer) Render(s *scene.Scene, cam scene.Camera) error {
	if s == nil || cam == nil {
		return errors.New("render needs a scene and a camera")
	}
	r.mu.Lock()
	width, height, ratio, clear := r.width, r.height, r.pixelRatio, r.clear
	r.mu.Unlock()
	if width == 0 || height == 0 {
		return ErrNoSize
	}

	w, h := float64(width), float64(height)
	shade := lightLevel(s.Lights())
	var items []drawItem
	scene.WalkVisible(s, func(n scene.Node) {
		if item, ok := project(n, cam, w, h, shade); ok {
			items = append(items, item)
		}
	})
	// farthest first
	sort.SliceStable(items, func(i, j int) bool { return items[i].depth > items[j].depth })

	dc := gg.NewContext(int(math.Ceil(w*ratio)), int(math.Ceil(h*ratio)))
	dc.SetColor(clear)
	dc.Clear()
	dc.Scale(ratio, ratio)
	for _, item := range items {
		item.draw(dc)
	}

	frame := image.NewRGBA(dc.Image().Bounds())
	draw.Draw(frame, frame.Bounds(), dc.Image(), image.Point{}, draw.Src)
	r.mu.Lock()
	r.frame = frame
	r.frames++
	r.mu.Unlock()
	return nil
}

// drawItem is one projected primitive.
type drawItem struct {
	depth float64
	draw  func(dc *gg.Context)
}

func project(n scene.Node, cam scene.Camera, w, h, shade float64) (drawItem, bool) {
	world := scene.WorldTransform(n)
	switch node := n.(type) {
	case *scene.Mesh:
		return projectMesh(node, world, cam, w, h, shade)
	case *scene.Sprite:
		center, ok := cam.Project(world.Position, w, h)
		if !ok {
			return drawItem{}, false
		}
		radius := screenRadius(cam, world.Position, center, node.Size*world.Scale/2, w, h)
		color := withAlpha(node.Color, node.Opacity)
		return drawItem{depth: center.Depth, draw: func(dc *gg.Context) {
			dc.SetColor(color)
			dc.DrawCircle(center.X, center.Y, radius)
			dc.Fill()
		}}, true
	case *scene.Label:
		at, ok := cam.Project(world.Position, w, h)
		if !ok {
			return drawItem{}, false
		}
		text, size := node.Text, node.Size
		color := withAlpha(node.Color, 1)
		return drawItem{depth: at.Depth, draw: func(dc *gg.Context) {
			dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: size}))
			dc.SetColor(color)
			dc.DrawStringAnchored(text, at.X, at.Y, 0.5, 0.5)
		}}, true
	}
	return drawItem{}, false
}

func projectMesh(m *scene.Mesh, world scene.Transform, cam scene.Camera, w, h, shade float64) (drawItem, bool) {
	color := withAlpha(m.Color, m.Opacity)
	switch m.Shape {
	case scene.ShapeSphere:
		center, ok := cam.Project(world.Position, w, h)
		if !ok {
			return drawItem{}, false
		}
		radius := screenRadius(cam, world.Position, center, m.Radius*world.Scale, w, h)
		lit := shaded(m.Color, m.Opacity, shade)
		return drawItem{depth: center.Depth, draw: func(dc *gg.Context) {
			dc.SetColor(lit)
			dc.DrawCircle(center.X, center.Y, radius)
			dc.Fill()
		}}, true
	case scene.ShapePoints:
		pts, depth := projectAll(m.Vertices, world, cam, w, h)
		if len(pts) == 0 {
			return drawItem{}, false
		}
		radius := math.Max(m.Radius*world.Scale, 0.5)
		return drawItem{depth: depth, draw: func(dc *gg.Context) {
			dc.SetColor(color)
			for _, p := range pts {
				dc.DrawCircle(p.X, p.Y, radius)
			}
			dc.Fill()
		}}, true
	case scene.ShapeLine, scene.ShapePolygon:
		pts, depth := projectAll(m.Vertices, world, cam, w, h)
		if len(pts) < 2 {
			return drawItem{}, false
		}
		closed := m.Shape == scene.ShapePolygon
		return drawItem{depth: depth, draw: func(dc *gg.Context) {
			dc.SetColor(color)
			dc.SetLineWidth(lineWidth)
			dc.MoveTo(pts[0].X, pts[0].Y)
			for _, p := range pts[1:] {
				dc.LineTo(p.X, p.Y)
			}
			if closed {
				dc.ClosePath()
			}
			dc.Stroke()
		}}, true
	}
	return drawItem{}, false
}

// projectAll projects vertices and returns those in range with their mean depth.
func projectAll(vertices []r3.Vector, world scene.Transform, cam scene.Camera, w, h float64) ([]scene.ScreenPoint, float64) {
	pts := make([]scene.ScreenPoint, 0, len(vertices))
	var depth float64
	for _, v := range vertices {
		p, ok := cam.Project(world.Apply(v), w, h)
		if !ok {
			continue
		}
		pts = append(pts, p)
		depth += p.Depth
	}
	if len(pts) == 0 {
		return nil, 0
	}
	return pts, depth / float64(len(pts))
}

// screenRadius measures a world radius at `pos` in surface pixels.
func screenRadius(cam scene.Camera, pos r3.Vector, center scene.ScreenPoint, radius, w, h float64) float64 {
	right := cam.Target().Sub(cam.Position()).Cross(r3.Vector{Y: 1})
	if right.Norm() < 1e-9 {
		right = r3.Vector{X: 1}
	}
	edge, ok := cam.Project(pos.Add(right.Normalize().Mul(radius)), w, h)
	if !ok {
		return 0
	}
	return math.Hypot(edge.X-center.X, edge.Y-center.Y)
}

// lightLevel is the brightness factor applied to lit surfaces.
func lightLevel(lights []scene.Light) float64 {
	level := 0.35
	for _, light := range lights {
		base := light.AsLightBase()
		switch light.(type) {
		case *scene.AmbientLight:
			level += 0.4 * base.Intensity
		case *scene.DirectionalLight:
			level += 0.5 * base.Intensity
		case *scene.PointLight:
			level += 0.15 * base.Intensity
		}
	}
	return math.Min(level, 1)
}

func parseColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, errors.Wrapf(err, "invalid color %q", hex)
	}
	return c, nil
}

// rgba is a straight-alpha color usable by gg.
type rgba struct {
	c colorful.Color
	a float64
}

func (c rgba) RGBA() (r, g, b, a uint32) {
	cl := c.c.Clamped()
	a = uint32(c.a * 0xffff)
	return uint32(cl.R * c.a * 0xffff), uint32(cl.G * c.a * 0xffff), uint32(cl.B * c.a * 0xffff), a
}

// withAlpha parses a node color, falling back to white for colors that do not parse.
func withAlpha(hex string, opacity float64) rgba {
	c, err := parseColor(hex)
	if err != nil {
		c = colorful.Color{R: 1, G: 1, B: 1}
	}
	return rgba{c: c, a: math.Max(0, math.Min(1, opacity))}
}

func shaded(hex string, opacity, level float64) rgba {
	c := withAlpha(hex, opacity)
	c.c = colorful.Color{R: c.c.R * level, G: c.c.G * level, B: c.c.B * level}
	return c
}
