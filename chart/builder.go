package chart

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/chartscene/config"
	"go.viam.com/chartscene/geometry"
	"go.viam.com/chartscene/render"
	"go.viam.com/chartscene/scene"
	"go.viam.com/chartscene/store"
	"go.viam.com/chartscene/utils"
)

// Fixed scene parameters.
const (
	ClearColor         = "#040D21"
	EarthContainerName = "earthContainer"
	LightColor         = "#fff"
	HelperSize         = 250

	orthographicScale = 200
	cameraNear        = 1
	cameraFar         = 1500
	perspectiveFOV    = 95
)

var (
	orthographicPosition = r3.Vector{X: 0, Y: 0, Z: 500}
	perspectivePosition  = r3.Vector{X: 350, Y: 350, Z: 350}
	directionalPosition  = r3.Vector{X: 2000, Y: 2000, Z: 3000}
	pointPosition        = r3.Vector{X: 200, Y: 200, Z: 40}
)

// pointLightDistance is the falloff distance of the point light.
const pointLightDistance = 100

// Components are the long lived parts of a built scene.
type Components struct {
	Scene     *scene.Scene
	Camera    scene.Camera
	Light     scene.Light
	Helper    *scene.AxesHelper
	Container *scene.Group
	Earth     *scene.Group
	Halo      *scene.Sprite
}

// Build assembles the scene for `opts`: camera, light, optional axes helper and the earth
// container holding the earth and halo, then sizes the renderer to the surface.
func Build(opts config.Options, cfg store.Config, renderer render.Renderer) (*Components, error) {
	if err := opts.Validate("options"); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	if renderer == nil {
		return nil, errors.New("a renderer is required")
	}

	comps := &Components{Scene: scene.NewScene()}
	camera, err := NewCamera(opts.CameraType, opts.Surface)
	if err != nil {
		return nil, err
	}
	comps.Camera = camera
	comps.Scene.Add(camera)

	light, err := NewLight(opts.Light)
	if err != nil {
		return nil, err
	}
	comps.Light = light
	comps.Scene.Add(light)

	if opts.Helper {
		comps.Helper = scene.NewAxesHelper(HelperSize)
		comps.Scene.Add(comps.Helper)
	}

	comps.Earth = geometry.Earth(cfg)
	comps.Halo = geometry.Halo(cfg)
	comps.Container = scene.NewGroup(EarthContainerName)
	comps.Container.Add(comps.Earth, comps.Halo)
	comps.Scene.Add(comps.Container)

	renderer.SetPixelRatio(opts.Surface.PixelRatio)
	if err := renderer.SetSize(opts.Surface.Width, opts.Surface.Height); err != nil {
		return nil, err
	}
	if err := renderer.SetClearColor(ClearColor); err != nil {
		return nil, err
	}
	return comps, nil
}

// NewCamera returns the camera for a surface, looking at the origin.
func NewCamera(cameraType config.CameraType, surface config.Surface) (scene.Camera, error) {
	if surface.Width <= 0 || surface.Height <= 0 {
		return nil, utils.NewInvalidDimensionsError(surface.Width, surface.Height)
	}
	k := surface.Aspect()
	var camera scene.Camera
	switch cameraType {
	case config.OrthographicCamera, "":
		s := float64(orthographicScale)
		camera = scene.NewOrthographicCamera(-s*k, s*k, s, -s, cameraNear, cameraFar)
		camera.SetPosition(orthographicPosition)
	case config.PerspectiveCamera:
		camera = scene.NewPerspectiveCamera(perspectiveFOV, k, cameraNear, cameraFar)
		camera.SetPosition(perspectivePosition)
	default:
		return nil, utils.NewUnsupportedValueError("cameraType", string(cameraType),
			string(config.OrthographicCamera), string(config.PerspectiveCamera))
	}
	camera.LookAt(r3.Vector{})
	return camera, nil
}

// NewLight returns the scene light of a type.
func NewLight(lightType config.LightType) (scene.Light, error) {
	switch lightType {
	case config.DirectionalLight, "":
		light := scene.NewDirectionalLight(LightColor, 1, directionalPosition)
		light.CastShadow = true
		return light, nil
	case config.AmbientLight:
		return scene.NewAmbientLight(LightColor, 1), nil
	case config.PointLight:
		return scene.NewPointLight(LightColor, 1, pointLightDistance, pointPosition), nil
	default:
		return nil, utils.NewUnsupportedValueError("light", string(lightType),
			string(config.DirectionalLight), string(config.AmbientLight), string(config.PointLight))
	}
}
