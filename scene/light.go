package scene

import "github.com/golang/geo/r3"

// Light is a node that illuminates the scene.
type Light interface {
	Node
	AsLightBase() *LightBase
}

// LightBase holds what every light has.
type LightBase struct {
	Color     string
	Intensity float64
}

// AsLightBase returns the base.
func (lb *LightBase) AsLightBase() *LightBase {
	return lb
}

// DirectionalLight shines from its position toward the origin with no falloff.
type DirectionalLight struct {
	Object
	LightBase

	CastShadow bool
}

// NewDirectionalLight returns a directional light at `pos`.
func NewDirectionalLight(color string, intensity float64, pos r3.Vector) *DirectionalLight {
	l := &DirectionalLight{LightBase: LightBase{Color: color, Intensity: intensity}}
	l.Init(l, "directionalLight", KindLight)
	l.SetPosition(pos)
	return l
}

// AmbientLight lights everything uniformly and has no position.
type AmbientLight struct {
	Object
	LightBase
}

// NewAmbientLight returns an ambient light.
func NewAmbientLight(color string, intensity float64) *AmbientLight {
	l := &AmbientLight{LightBase: LightBase{Color: color, Intensity: intensity}}
	l.Init(l, "ambientLight", KindLight)
	return l
}

// PointLight radiates from its position and fades to nothing at Distance.
type PointLight struct {
	Object
	LightBase

	Distance float64
}

// NewPointLight returns a point light at `pos`.
func NewPointLight(color string, intensity, distance float64, pos r3.Vector) *PointLight {
	l := &PointLight{LightBase: LightBase{Color: color, Intensity: intensity}, Distance: distance}
	l.Init(l, "pointLight", KindLight)
	l.SetPosition(pos)
	return l
}
