// Package config defines the construction options of a chart scene and how they are read.
package config

import (
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/chartscene/utils"
)

// CameraType selects the projection used by the scene camera.
type CameraType string

// Supported camera types.
const (
	OrthographicCamera CameraType = "OrthographicCamera"
	PerspectiveCamera  CameraType = "PerspectiveCamera"
)

// LightType selects the scene light.
type LightType string

// Supported light types.
const (
	DirectionalLight LightType = "DirectionalLight"
	AmbientLight     LightType = "AmbientLight"
	PointLight       LightType = "PointLight"
)

// DefaultRotateSpeed is the autorotation applied per rendered frame, in radians.
const DefaultRotateSpeed = 0.01

// Surface describes the render target.
type Surface struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// PixelRatio is the device pixel density, 1 when unset.
	PixelRatio float64 `json:"pixelRatio,omitempty"`
}

// Aspect is width over height.
func (s Surface) Aspect() float64 {
	return float64(s.Width) / float64(s.Height)
}

// Options are the construction parameters of a chart. They are not changed after construction.
type Options struct {
	Surface    Surface    `json:"surface"`
	CameraType CameraType `json:"cameraType,omitempty"`
	Light      LightType  `json:"light,omitempty"`
	Helper     bool       `json:"helper,omitempty"`
	// AutoRotate defaults to on; RotateSpeed defaults to DefaultRotateSpeed.
	AutoRotate  *bool    `json:"autoRotate,omitempty"`
	RotateSpeed *float64 `json:"rotateSpeed,omitempty"`
	// LimitFPS throttles rendering to FPS (30 when unset). Off by default: every display frame
	// renders.
	LimitFPS bool    `json:"limitFPS,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
	// Config is the opaque visualization payload handed to the geometry generators.
	Config map[string]any `json:"config,omitempty"`
}

// WithDefaults returns a copy with unset fields filled in.
func (o Options) WithDefaults() Options {
	if o.CameraType == "" {
		o.CameraType = OrthographicCamera
	}
	if o.Light == "" {
		o.Light = DirectionalLight
	}
	if o.AutoRotate == nil {
		autoRotate := true
		o.AutoRotate = &autoRotate
	}
	if o.RotateSpeed == nil {
		speed := DefaultRotateSpeed
		o.RotateSpeed = &speed
	}
	if o.Surface.PixelRatio <= 0 {
		o.Surface.PixelRatio = 1
	}
	return o
}

// AutoRotateEnabled reports whether the earth container spins on its own.
func (o Options) AutoRotateEnabled() bool {
	return o.AutoRotate == nil || *o.AutoRotate
}

// Speed returns the per-frame autorotation in radians.
func (o Options) Speed() float64 {
	if o.RotateSpeed == nil {
		return DefaultRotateSpeed
	}
	return *o.RotateSpeed
}

// Validate ensures the options can build a scene. Unset enums are accepted since WithDefaults
// fills them.
func (o *Options) Validate(path string) error {
	if o.Surface.Width <= 0 || o.Surface.Height <= 0 {
		return goutils.NewConfigValidationError(path,
			utils.NewInvalidDimensionsError(o.Surface.Width, o.Surface.Height))
	}
	switch o.CameraType {
	case "", OrthographicCamera, PerspectiveCamera:
	default:
		return goutils.NewConfigValidationError(path, utils.NewUnsupportedValueError(
			"cameraType", string(o.CameraType), string(OrthographicCamera), string(PerspectiveCamera)))
	}
	switch o.Light {
	case "", DirectionalLight, AmbientLight, PointLight:
	default:
		return goutils.NewConfigValidationError(path, utils.NewUnsupportedValueError(
			"light", string(o.Light), string(DirectionalLight), string(AmbientLight), string(PointLight)))
	}
	if o.FPS < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("fps must not be negative, got %v", o.FPS))
	}
	return nil
}
