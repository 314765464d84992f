package operate

import (
	"context"
	"math"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/chartscene/geometry"
	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/tween"
)

// Built-in data types.
const (
	Points   = "points"
	Markers  = "markers"
	Labels   = "labels"
	FlyLines = "flyLines"
)

// surfaceLift keeps point-like data just above the outlines.
const surfaceLift = 1.01

// markerGrow is how long a new marker takes to scale in.
const markerGrow = 600 * time.Millisecond

// minArcScale keeps fly lines between nearby cities off the surface.
const minArcScale = 0.2

// maxValueScale is how much larger the point with the highest value is drawn than the lowest.
const maxValueScale = 2.0

// PointDatum is one entry of points or markers data.
type PointDatum struct {
	ID    string  `json:"id"`
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// LabelDatum is one entry of labels data.
type LabelDatum struct {
	ID    string  `json:"id"`
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// FlyLineDatum is one entry of flyLines data.
type FlyLineDatum struct {
	ID    string          `json:"id"`
	From  geometry.LonLat `json:"from"`
	To    geometry.LonLat `json:"to"`
	Color string          `json:"color"`
}

// decodeList decodes `data` into a slice of T. A single object is accepted as a one element list.
func decodeList[T any](data any) ([]T, error) {
	switch typed := data.(type) {
	case nil:
		return nil, errors.New("no data")
	case []T:
		return typed, nil
	case T:
		return []T{typed}, nil
	case map[string]any:
		data = []any{typed}
	}
	var out []T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, errors.Wrap(err, "decoding data")
	}
	return out, nil
}

func checkCoordinate(c geometry.LonLat) error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || c.Lat < -90 || c.Lat > 90 {
		return errors.Errorf("coordinate (%v, %v) is out of range", c.Lon, c.Lat)
	}
	return nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// dataGroup returns the group that carries one datum.
func dataGroup(id string) *scene.Group {
	if id == "" {
		id = uuid.NewString()
	}
	g := scene.NewGroup(id)
	g.SetUserData(scene.UserData{ID: id})
	return g
}

func buildPoints(ctx context.Context, env *Env, data any) ([]scene.Node, error) {
	items, err := decodeList[PointDatum](data)
	if err != nil {
		return nil, err
	}
	scale := valueScale(items)
	nodes := make([]scene.Node, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := geometry.LonLat{Lon: item.Lon, Lat: item.Lat}
		if err := checkCoordinate(at); err != nil {
			return nil, errors.Wrapf(err, "point %d", i)
		}
		g := dataGroup(item.ID)
		g.SetPosition(geometry.ToVector(at, env.Config.R*surfaceLift))
		mesh := scene.NewMesh("point", scene.ShapePoints, orDefault(item.Color, env.Config.PointColor))
		mesh.Radius = orDefault(item.Size, env.Config.PointSize*scale(item.Value))
		mesh.Vertices = []r3.Vector{{}}
		g.Add(mesh)
		nodes = append(nodes, g)
	}
	return nodes, nil
}

func buildMarkers(ctx context.Context, env *Env, data any) ([]scene.Node, error) {
	items, err := decodeList[PointDatum](data)
	if err != nil {
		return nil, err
	}
	nodes := make([]scene.Node, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := geometry.LonLat{Lon: item.Lon, Lat: item.Lat}
		if err := checkCoordinate(at); err != nil {
			return nil, errors.Wrapf(err, "marker %d", i)
		}
		g := dataGroup(item.ID)
		g.SetPosition(geometry.ToVector(at, env.Config.R*surfaceLift))
		sprite := scene.NewSprite("marker", orDefault(item.Size, env.Config.MarkerSize), orDefault(item.Color, env.Config.MarkerColor))
		sprite.SetScale(0)
		g.Add(sprite)
		env.Animate(g, tween.New(0, 1, markerGrow).Easing(tween.CubicOut).OnUpdate(sprite.SetScale))
		nodes = append(nodes, g)
	}
	return nodes, nil
}

func buildLabels(ctx context.Context, env *Env, data any) ([]scene.Node, error) {
	items, err := decodeList[LabelDatum](data)
	if err != nil {
		return nil, err
	}
	nodes := make([]scene.Node, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := geometry.LonLat{Lon: item.Lon, Lat: item.Lat}
		if err := checkCoordinate(at); err != nil {
			return nil, errors.Wrapf(err, "label %d", i)
		}
		if item.Text == "" {
			return nil, errors.Errorf("label %d has no text", i)
		}
		g := dataGroup(item.ID)
		g.SetPosition(geometry.ToVector(at, env.Config.R*surfaceLift))
		g.Add(scene.NewLabel("label", item.Text, orDefault(item.Color, env.Config.LabelColor), orDefault(item.Size, env.Config.LabelSize)))
		nodes = append(nodes, g)
	}
	return nodes, nil
}

func buildFlyLines(ctx context.Context, env *Env, data any) ([]scene.Node, error) {
	items, err := decodeList[FlyLineDatum](data)
	if err != nil {
		return nil, err
	}
	nodes := make([]scene.Node, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := checkCoordinate(item.From); err != nil {
			return nil, errors.Wrapf(err, "fly line %d start", i)
		}
		if err := checkCoordinate(item.To); err != nil {
			return nil, errors.Wrapf(err, "fly line %d end", i)
		}
		color := orDefault(item.Color, env.Config.FlyLineColor)
		path := geometry.Arc(item.From, item.To, env.Config.R, arcHeight(env.Config.FlyLineHeight, item.From, item.To), env.Config.Segments)

		g := dataGroup(item.ID)
		line := scene.NewMesh("flyLine", scene.ShapeLine, color)
		line.Vertices = path
		head := scene.NewSprite("flyLineHead", env.Config.PointSize, color)
		head.SetPosition(path[0])
		g.Add(line, head)

		last := len(path) - 1
		env.Animate(g, tween.New(0, float64(last), env.Config.FlyLineDuration).
			Easing(tween.SineInOut).
			Repeat(true).
			OnUpdate(func(v float64) {
				head.SetPosition(along(path, v))
			}))
		nodes = append(nodes, g)
	}
	return nodes, nil
}

// valueScale maps a point value onto [1, maxValueScale] across the batch. Batches without a spread
// of values draw every point at the configured size.
func valueScale(items []PointDatum) func(float64) float64 {
	flat := func(float64) float64 { return 1 }
	if len(items) < 2 {
		return flat
	}
	values := make(stats.Float64Data, 0, len(items))
	for _, item := range items {
		values = append(values, item.Value)
	}
	low, err := stats.Min(values)
	if err != nil {
		return flat
	}
	high, err := stats.Max(values)
	if err != nil || high-low <= 0 || math.IsNaN(high-low) {
		return flat
	}
	return func(v float64) float64 {
		return 1 + (maxValueScale-1)*(v-low)/(high-low)
	}
}

// arcHeight scales the configured bulge by how far apart the endpoints are.
func arcHeight(height float64, from, to geometry.LonLat) float64 {
	ratio := geometry.Distance(from, to) / geometry.HalfCircumferenceKm
	return height * math.Min(1, math.Max(minArcScale, ratio))
}

// along interpolates a polyline at fractional vertex index v.
func along(path []r3.Vector, v float64) r3.Vector {
	if v <= 0 {
		return path[0]
	}
	i := int(v)
	if i >= len(path)-1 {
		return path[len(path)-1]
	}
	f := v - float64(i)
	return path[i].Mul(1 - f).Add(path[i+1].Mul(f))
}
