// Package geometry turns visualization configuration and coordinates into scene nodes: the earth
// sphere, the map outline shapes and the halo sprite.
package geometry

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	geo "github.com/kellydunn/golang-geo"

	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/store"
)

// Names of the static nodes.
const (
	EarthGroupName = "earth"
	EarthMeshName  = "earthMesh"
	HaloName       = "halo"
)

// shapeLift raises outlines off the sphere so they are not hidden by it.
const shapeLift = 1.001

// LonLat is a geographic coordinate in degrees.
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// ToVector places a coordinate on a sphere of `radius` centered at the origin. +Y points at the
// north pole and longitude 0 on the equator faces +Z.
func ToVector(c LonLat, radius float64) r3.Vector {
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
	return r3.Vector{X: p.Y, Y: p.Z, Z: p.X}.Mul(radius)
}

// Earth builds the earth group: the base sphere plus one outline mesh per configured shape.
func Earth(cfg store.Config) *scene.Group {
	group := scene.NewGroup(EarthGroupName)
	sphere := scene.NewMesh(EarthMeshName, scene.ShapeSphere, cfg.EarthColor)
	sphere.Radius = cfg.R
	group.Add(sphere)
	group.Add(MapShapes(cfg)...)
	return group
}

// MapShapes builds a closed outline for every shape in the config.
func MapShapes(cfg store.Config) []scene.Node {
	nodes := make([]scene.Node, 0, len(cfg.Shapes))
	for _, shape := range cfg.Shapes {
		if len(shape.Coordinates) < 2 {
			continue
		}
		mesh := scene.NewMesh(shape.Name, scene.ShapePolygon, cfg.ShapeColor)
		mesh.Vertices = ring(shape.Coordinates, cfg.R*shapeLift, cfg.Segments)
		nodes = append(nodes, mesh)
	}
	return nodes
}

// ring samples each edge of the polygon along the sphere so long edges follow its curvature.
func ring(coords [][2]float64, radius float64, segments int) []r3.Vector {
	var out []r3.Vector
	for i := range coords {
		from := LonLat{Lon: coords[i][0], Lat: coords[i][1]}
		to := LonLat{Lon: coords[(i+1)%len(coords)][0], Lat: coords[(i+1)%len(coords)][1]}
		steps := edgeSteps(from, to, segments)
		for s := 0; s < steps; s++ {
			out = append(out, slerp(ToVector(from, 1), ToVector(to, 1), float64(s)/float64(steps)).Mul(radius))
		}
	}
	return out
}

// edgeSteps gives an edge spanning the full half circle `segments` samples, fewer for shorter edges.
func edgeSteps(from, to LonLat, segments int) int {
	angle := ToVector(from, 1).Angle(ToVector(to, 1))
	steps := int(math.Ceil(float64(segments) * float64(angle) / math.Pi))
	if steps < 1 {
		steps = 1
	}
	return steps
}

// Halo builds the glow sprite drawn behind the earth.
func Halo(cfg store.Config) *scene.Sprite {
	sprite := scene.NewSprite(HaloName, cfg.HaloSize, cfg.HaloColor)
	sprite.Opacity = 0.3
	return sprite
}

// HalfCircumferenceKm is the longest great circle distance between two points on earth.
var HalfCircumferenceKm = math.Pi * float64(geo.EARTH_RADIUS)

// Distance is the great circle distance between two coordinates in kilometers.
func Distance(from, to LonLat) float64 {
	return geo.NewPoint(from.Lat, from.Lon).GreatCircleDistance(geo.NewPoint(to.Lat, to.Lon))
}

// Arc returns `samples`+1 points of a great circle arc from `from` to `to` that bulges outward
// by `height` times the radius at its midpoint.
func Arc(from, to LonLat, radius, height float64, samples int) []r3.Vector {
	if samples < 1 {
		samples = 1
	}
	a, b := ToVector(from, 1), ToVector(to, 1)
	out := make([]r3.Vector, 0, samples+1)
	for i := 0; i <= samples; i++ {
		t := float64(i) / float64(samples)
		lift := 1 + height*math.Sin(math.Pi*t)
		out = append(out, slerp(a, b, t).Mul(radius*lift))
	}
	return out
}

// slerp interpolates between unit vectors along the sphere.
func slerp(a, b r3.Vector, t float64) r3.Vector {
	omega := float64(a.Angle(b))
	if omega < 1e-9 {
		return a
	}
	sinOmega := math.Sin(omega)
	if sinOmega < 1e-9 {
		// Antipodal points: any great circle works, go through a perpendicular.
		return a.Mul(math.Cos(math.Pi * t)).Add(a.Ortho().Mul(math.Sin(math.Pi * t)))
	}
	return a.Mul(math.Sin((1-t)*omega) / sinOmega).Add(b.Mul(math.Sin(t*omega) / sinOmega))
}
